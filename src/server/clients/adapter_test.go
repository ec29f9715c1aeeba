package clients

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/types"
)

// blockingHost never answers; every bridge call waits out its context.
type blockingHost struct{}

func (blockingHost) Call(ctx context.Context, _ string, _ ...interface{}) (json.RawMessage, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingHost) Eval(ctx context.Context, _ string, _ interface{}) (json.RawMessage, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingHost) Lua(ctx context.Context, _ string, _ ...interface{}) (json.RawMessage, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingHost) Register(func(json.RawMessage)) string { return "0" }
func (blockingHost) Unregister(string)                     {}

func TestNewRegistryThreadsRequestTimeout(t *testing.T) {
	r := NewRegistry(blockingHost{}, 3*time.Second)

	nvim, ok := r.Adapter(types.ClientNvimLSP).(*nvimAdapter)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, nvim.timeout)

	coc, ok := r.Adapter(types.ClientCoc).(*cocAdapter)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, coc.timeout)

	vim, ok := r.Adapter(types.ClientVimLSP).(*vimLSPAdapter)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, vim.timeout)
}

func TestNewRegistryTimeoutFallback(t *testing.T) {
	r := NewRegistry(blockingHost{}, 0)
	nvim := r.Adapter(types.ClientNvimLSP).(*nvimAdapter)
	assert.Equal(t, common.DefaultRequestTimeout, nvim.timeout)
}

func TestRequestHonorsConfiguredTimeout(t *testing.T) {
	a := newNvimAdapter(blockingHost{}, 50*time.Millisecond)
	client := types.Client{Name: types.ClientNvimLSP, ID: "1"}

	start := time.Now()
	_, err := a.Request(context.Background(), client, types.MethodTextDocumentDefinition, nil, 1)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second,
		"the configured deadline bounds the round-trip, not the built-in default")
}
