package source

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"lsp-finder/src/editor"
	"lsp-finder/src/internal/types"
)

func utf16TestClient() types.Client {
	return types.Client{Name: types.ClientNvimLSP, ID: "1", OffsetEncoding: types.OffsetEncodingUTF16}
}

func TestTextDocumentIdentifier(t *testing.T) {
	buffers := editor.NewMemory()
	bufNr := buffers.Open("/proj/a.go", []string{"package a"})
	b := NewParamsBuilder(buffers, nil)

	tdi, err := b.TextDocumentIdentifier(context.Background(), bufNr)
	require.NoError(t, err)
	assert.Equal(t, protocol.DocumentURI("file:///proj/a.go"), tdi.URI)
}

func TestPositionParams(t *testing.T) {
	buffers := editor.NewMemory()
	bufNr := buffers.Open("/proj/a.go", []string{"package a", "var x = \"😀\" + y"})
	// Cursor past the 4-byte emoji: byte column 13.
	buffers.SetCursor(bufNr, protocol.Position{Line: 1, Character: 13})
	b := NewParamsBuilder(buffers, nil)

	params, err := b.PositionParams(context.Background(), bufNr, 1000, types.OffsetEncodingUTF16)
	require.NoError(t, err)
	assert.Equal(t, protocol.DocumentURI("file:///proj/a.go"), params.TextDocument.URI)
	assert.Equal(t, protocol.Position{Line: 1, Character: 11}, params.Position,
		"byte offset re-encoded as utf-16 units")

	params, err = b.PositionParams(context.Background(), bufNr, 1000, types.OffsetEncodingUTF32)
	require.NoError(t, err)
	assert.Equal(t, protocol.Position{Line: 1, Character: 10}, params.Position)
}

func TestPositionParamsWrongWindowBuffer(t *testing.T) {
	buffers := editor.NewMemory()
	bufNr := buffers.Open("/proj/a.go", []string{"package a"})
	other := buffers.Open("/proj/b.go", []string{"package b"})
	buffers.SetCursor(other, protocol.Position{})
	b := NewParamsBuilder(buffers, nil)

	_, err := b.PositionParams(context.Background(), bufNr, 1000, types.OffsetEncodingUTF16)
	assert.Error(t, err)
}

func TestReferencesParams(t *testing.T) {
	buffers := editor.NewMemory()
	bufNr := buffers.Open("/proj/a.go", []string{"package a"})
	buffers.SetCursor(bufNr, protocol.Position{Line: 0, Character: 2})
	b := NewParamsBuilder(buffers, nil)

	params, err := b.ReferencesParams(context.Background(), bufNr, 1000, types.OffsetEncodingUTF16, true)
	require.NoError(t, err)
	assert.True(t, params.Context.IncludeDeclaration)

	params, err = b.ReferencesParams(context.Background(), bufNr, 1000, types.OffsetEncodingUTF16, false)
	require.NoError(t, err)
	assert.False(t, params.Context.IncludeDeclaration)
}

func TestCodeActionParamsCursor(t *testing.T) {
	buffers := editor.NewMemory()
	bufNr := buffers.Open("/proj/a.go", []string{"package a", "var x = 1"})
	buffers.SetCursor(bufNr, protocol.Position{Line: 1, Character: 4})
	aggregator := NewAggregator(newFakeHost().withLua(`[]`), buffers)
	b := NewParamsBuilder(buffers, aggregator)

	params, err := b.CodeActionParams(context.Background(), bufNr, 1000, utf16TestClient())
	require.NoError(t, err)

	// Normal mode collapses the range onto the cursor.
	assert.Equal(t, protocol.Position{Line: 1, Character: 4}, params.Range.Start)
	assert.Equal(t, params.Range.Start, params.Range.End)
	require.NotNil(t, params.Context.Diagnostics)
	assert.Empty(t, params.Context.Diagnostics)
}

func TestCodeActionParamsLinewise(t *testing.T) {
	buffers := editor.NewMemory()
	bufNr := buffers.Open("/proj/a.go", []string{"one", "two", "three"})
	buffers.SetCursor(bufNr, protocol.Position{})
	buffers.Select(protocol.Position{Line: 2, Character: 1}, protocol.Position{Line: 0, Character: 2}, true)
	aggregator := NewAggregator(newFakeHost().withLua(`[]`), buffers)
	b := NewParamsBuilder(buffers, aggregator)

	params, err := b.CodeActionParams(context.Background(), bufNr, 1000, utf16TestClient())
	require.NoError(t, err)

	// Reversed marks are swapped; line-wise spans whole lines.
	assert.Equal(t, protocol.Position{Line: 0, Character: 0}, params.Range.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: math.MaxUint32}, params.Range.End)
}

func TestCodeActionParamsIncludesDiagnostics(t *testing.T) {
	buffers := editor.NewMemory()
	bufNr := buffers.Open("/proj/a.go", []string{"package a"})
	buffers.SetCursor(bufNr, protocol.Position{Line: 0, Character: 0})
	aggregator := NewAggregator(newFakeHost().withLua(`[
		{"bufnr":`+strconv.Itoa(bufNr)+`,"lnum":0,"col":0,"end_lnum":0,"end_col":7,"severity":1,"message":"bad package","user_data":{"lsp":{}}}
	]`), buffers)
	b := NewParamsBuilder(buffers, aggregator)

	params, err := b.CodeActionParams(context.Background(), bufNr, 1000, utf16TestClient())
	require.NoError(t, err)
	require.Len(t, params.Context.Diagnostics, 1)
	assert.Equal(t, "bad package", params.Context.Diagnostics[0].Message)
}
