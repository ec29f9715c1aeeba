package kind

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"lsp-finder/src/editor"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/server/clients"
	"lsp-finder/src/server/dispatch"
)

// fakeBackend answers per-method canned responses and counts requests.
type fakeBackend struct {
	name      types.ClientName
	responses map[string]json.RawMessage
	failures  map[string]error
	requests  map[string]int
}

func newFakeBackend(name types.ClientName) *fakeBackend {
	return &fakeBackend{
		name:      name,
		responses: make(map[string]json.RawMessage),
		failures:  make(map[string]error),
		requests:  make(map[string]int),
	}
}

func (f *fakeBackend) withResponse(method, raw string) *fakeBackend {
	f.responses[method] = json.RawMessage(raw)
	return f
}

func (f *fakeBackend) withFailure(method string) *fakeBackend {
	f.failures[method] = fmt.Errorf("request %s failed", method)
	return f
}

func (f *fakeBackend) Name() types.ClientName { return f.name }

func (f *fakeBackend) ListClients(context.Context, int) ([]types.Client, error) {
	return []types.Client{{Name: f.name, ID: "1"}}, nil
}

func (f *fakeBackend) Request(_ context.Context, _ types.Client, method string, _ interface{}, _ int) (json.RawMessage, error) {
	f.requests[method]++
	if err, ok := f.failures[method]; ok {
		return nil, err
	}
	return f.responses[method], nil
}

func (f *fakeBackend) Supports(context.Context, types.Client, string) (bool, bool) {
	return true, true
}

func executorWith(backend *fakeBackend, buffers editor.BufferService) *Executor {
	return NewExecutor(dispatch.NewDispatcher(clients.NewRegistryWith(backend)), buffers)
}

func navItem(path string, startLine, startChar uint32, client types.Client, method string) *types.Item {
	return &types.Item{
		Word: "item",
		Action: &types.Action{
			Path: path,
			Range: &protocol.Range{
				Start: protocol.Position{Line: startLine, Character: startChar},
				End:   protocol.Position{Line: startLine, Character: startChar + 1},
			},
			Context: types.ItemContext{Client: client, BufNr: 1, Method: method},
		},
	}
}

func TestEnsureAction(t *testing.T) {
	buffers := editor.NewMemory()
	buffers.Open("/proj/a.go", []string{"package a", "", "func 😀x() {}"})
	e := executorWith(newFakeBackend(types.ClientNvimLSP), buffers)

	item := navItem("/proj/a.go", 2, 7, utf16Client, types.MethodTextDocumentDefinition)
	resolved, err := e.EnsureAction(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, "/proj/a.go", resolved.Path)
	assert.NotZero(t, resolved.BufNr)
	assert.Equal(t, 3, resolved.Lnum)
	// utf-16 character 7 sits after the 4-byte emoji: byte 9, 1-indexed 10.
	assert.Equal(t, 10, resolved.Col)
	assert.Equal(t, types.ResolveStateResolved, item.Action.State)

	again, err := e.EnsureAction(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, resolved, again)
}

func TestEnsureActionNoTarget(t *testing.T) {
	e := executorWith(newFakeBackend(types.ClientNvimLSP), editor.NewMemory())
	_, err := e.EnsureAction(context.Background(), &types.Item{Word: "x"})
	assert.Error(t, err)
}

func TestEnsureActionResolvingInFlight(t *testing.T) {
	e := executorWith(newFakeBackend(types.ClientNvimLSP), editor.NewMemory())
	item := navItem("/proj/a.go", 0, 0, utf16Client, types.MethodTextDocumentDefinition)
	item.Action.State = types.ResolveStateResolving

	_, err := e.EnsureAction(context.Background(), item)
	assert.Error(t, err)
}

func TestEnsureActionResolvesWorkspaceSymbol(t *testing.T) {
	buffers := editor.NewMemory()
	buffers.Open("/proj/registry.go", []string{"package a", "type Registry struct{}"})
	backend := newFakeBackend(types.ClientNvimLSP).withResponse(types.MethodWorkspaceSymbolResolve, `{
		"name": "Registry", "kind": 23,
		"location": {"uri": "file:///proj/registry.go", "range": {"start":{"line":1,"character":5},"end":{"line":1,"character":13}}}
	}`)
	e := executorWith(backend, buffers)

	item := &types.Item{
		Word: "Registry",
		Action: &types.Action{
			Path:    "/proj/registry.go",
			Context: types.ItemContext{Client: utf16Client, BufNr: 1, Method: types.MethodWorkspaceSymbol},
		},
		Data: json.RawMessage(`{"name":"Registry","data":{"id":7}}`),
	}
	resolved, err := e.EnsureAction(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, 2, resolved.Lnum)
	assert.Equal(t, 6, resolved.Col)
	assert.Equal(t, 1, backend.requests[types.MethodWorkspaceSymbolResolve])

	_, err = e.EnsureAction(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.requests[types.MethodWorkspaceSymbolResolve], "resolve fires at most once")
}

func TestEnsureActionFailureSticks(t *testing.T) {
	backend := newFakeBackend(types.ClientNvimLSP).withFailure(types.MethodWorkspaceSymbolResolve)
	e := executorWith(backend, editor.NewMemory())

	item := &types.Item{
		Action: &types.Action{
			Path:    "/proj/a.go",
			Context: types.ItemContext{Client: utf16Client, BufNr: 1, Method: types.MethodWorkspaceSymbol},
		},
		Data: json.RawMessage(`{"name":"X"}`),
	}
	_, err := e.EnsureAction(context.Background(), item)
	require.Error(t, err)
	assert.Equal(t, types.ResolveStateFailed, item.Action.State)

	_, err = e.EnsureAction(context.Background(), item)
	assert.True(t, errors.IsResolveError(err))
	assert.Equal(t, 1, backend.requests[types.MethodWorkspaceSymbolResolve], "a failed resolve is not retried")
}

func TestEnsureActionVirtualBuffer(t *testing.T) {
	backend := newFakeBackend(types.ClientNvimLSP).
		withResponse(types.MethodDenoVirtualTextDocument, `"// deno asset\ndeclare const x: number;"`)
	buffers := editor.NewMemory()
	e := executorWith(backend, buffers)

	item := navItem("deno:/asset/lib.deno.d.ts", 1, 8, utf16Client, types.MethodTextDocumentDefinition)
	resolved, err := e.EnsureAction(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, 2, resolved.Lnum)
	assert.Equal(t, []string{"// deno asset", "declare const x: number;"}, buffers.Lines(resolved.BufNr))

	// A second item in the same document reuses the populated buffer.
	other := navItem("deno:/asset/lib.deno.d.ts", 0, 0, utf16Client, types.MethodTextDocumentDefinition)
	_, err = e.EnsureAction(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.requests[types.MethodDenoVirtualTextDocument])
}

func TestEnsureCodeActionResolvesOnce(t *testing.T) {
	backend := newFakeBackend(types.ClientNvimLSP).withResponse(types.MethodCodeActionResolve, `{
		"title": "Fix all",
		"edit": {"changes": {"file:///proj/a.ts": []}}
	}`)
	e := executorWith(backend, editor.NewMemory())

	item := &types.Item{
		Word: "Fix all",
		CodeAction: &types.CodeActionRecord{
			Context: types.ItemContext{Client: utf16Client, BufNr: 1, Method: types.MethodTextDocumentCodeAction},
		},
		Data: json.RawMessage(`{"title":"Fix all","data":{"id":1}}`),
	}
	record, err := e.EnsureCodeAction(context.Background(), item)
	require.NoError(t, err)
	assert.NotEmpty(t, record.Edit)
	assert.Equal(t, types.ResolveStateResolved, record.State)

	_, err = e.EnsureCodeAction(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.requests[types.MethodCodeActionResolve])
}

func TestEnsureCodeActionSkipsResolveWithEdit(t *testing.T) {
	backend := newFakeBackend(types.ClientNvimLSP)
	e := executorWith(backend, editor.NewMemory())

	item := &types.Item{
		CodeAction: &types.CodeActionRecord{
			Edit:    json.RawMessage(`{"changes":{}}`),
			Context: types.ItemContext{Client: utf16Client, BufNr: 1},
		},
	}
	_, err := e.EnsureCodeAction(context.Background(), item)
	require.NoError(t, err)
	assert.Zero(t, backend.requests[types.MethodCodeActionResolve])
}

func TestEnsureCodeActionFailureNotRetried(t *testing.T) {
	backend := newFakeBackend(types.ClientNvimLSP).withFailure(types.MethodCodeActionResolve)
	e := executorWith(backend, editor.NewMemory())

	item := &types.Item{
		CodeAction: &types.CodeActionRecord{
			Context: types.ItemContext{Client: utf16Client, BufNr: 1},
		},
		Data: json.RawMessage(`{"title":"x"}`),
	}
	_, err := e.EnsureCodeAction(context.Background(), item)
	require.Error(t, err)
	assert.Equal(t, types.ResolveStateFailed, item.CodeAction.State)

	_, err = e.EnsureCodeAction(context.Background(), item)
	require.NoError(t, err, "a failed record is returned as-is, without a retry")
	assert.Equal(t, 1, backend.requests[types.MethodCodeActionResolve])
}

func TestApplyRunsEditThenCommand(t *testing.T) {
	backend := newFakeBackend(types.ClientNvimLSP).withResponse(types.MethodWorkspaceExecuteCommand, `null`)
	buffers := editor.NewMemory()
	bufNr := buffers.Open("/proj/a.ts", []string{"old"})
	e := executorWith(backend, buffers)

	item := &types.Item{
		CodeAction: &types.CodeActionRecord{
			Edit: json.RawMessage(`{"changes": {"file:///proj/a.ts": [
				{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":3}},"newText":"new"}
			]}}`),
			Command: &protocol.Command{Command: "editor.afterApply"},
			Context: types.ItemContext{Client: utf16Client, BufNr: 1},
		},
	}
	require.NoError(t, e.Apply(context.Background(), item))
	assert.Equal(t, []string{"new"}, buffers.Lines(bufNr))
	assert.Equal(t, 1, backend.requests[types.MethodWorkspaceExecuteCommand])
}
