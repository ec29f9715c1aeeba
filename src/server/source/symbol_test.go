package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestKindPrefixPadding(t *testing.T) {
	assert.Equal(t, "[Class]        ", kindPrefix(protocol.SymbolKindClass))
	assert.Equal(t, "[TypeParameter]", kindPrefix(protocol.SymbolKindTypeParameter))
	assert.Equal(t, "[Unknown]      ", kindPrefix(protocol.SymbolKind(99)))
}

func TestDocumentSymbolsNested(t *testing.T) {
	raw := json.RawMessage(`[{
		"name":"Server","kind":5,
		"range":{"start":{"line":0,"character":0},"end":{"line":30,"character":1}},
		"selectionRange":{"start":{"line":0,"character":6},"end":{"line":0,"character":12}},
		"children":[
			{"name":"start","kind":6,
			 "range":{"start":{"line":10,"character":2},"end":{"line":15,"character":3}},
			 "selectionRange":{"start":{"line":10,"character":7},"end":{"line":10,"character":12}}},
			{"name":"stop","kind":6,
			 "range":{"start":{"line":4,"character":2},"end":{"line":8,"character":3}},
			 "selectionRange":{"start":{"line":4,"character":7},"end":{"line":4,"character":11}}}
		]
	}]`)

	items := DocumentSymbols(raw, testClient, testReqCtx())
	require.Len(t, items, 1)

	root := items[0]
	assert.Equal(t, "[Class]         Server", root.Word)
	assert.Equal(t, []string{"Server"}, root.TreePath)
	assert.Equal(t, 3, root.Action.BufNr)
	require.NotNil(t, root.IsTree)
	assert.True(t, *root.IsTree)

	// Siblings are reordered by start position, not source order.
	require.Len(t, root.Children, 2)
	assert.Equal(t, "[Method]        stop", root.Children[0].Word)
	assert.Equal(t, "[Method]        start", root.Children[1].Word)
	assert.Equal(t, []string{"Server", "stop"}, root.Children[0].TreePath)
	assert.Equal(t, 1, root.Children[0].Level)

	require.NotNil(t, root.Children[0].IsTree)
	assert.False(t, *root.Children[0].IsTree, "childless symbol is a proven leaf")
}

func TestDocumentSymbolsFlatInformation(t *testing.T) {
	raw := json.RawMessage(`[{
		"name":"main","kind":12,"containerName":"cmd",
		"location":{"uri":"file:///proj/main.go","range":{"start":{"line":5,"character":5},"end":{"line":5,"character":9}}}
	}]`)

	items := DocumentSymbols(raw, testClient, testReqCtx())
	require.Len(t, items, 1)
	assert.Equal(t, "[Function]      main", items[0].Word)
	assert.Equal(t, "/proj/main.go", items[0].Action.Path)
	assert.Nil(t, items[0].IsTree, "SymbolInformation carries no hierarchy")
	assert.Empty(t, items[0].TreePath)
}

func TestDocumentSymbolsNull(t *testing.T) {
	assert.Empty(t, DocumentSymbols(json.RawMessage(`null`), testClient, testReqCtx()))
	assert.Empty(t, DocumentSymbols(json.RawMessage(`{"broken":`), testClient, testReqCtx()))
}

func TestWorkspaceSymbols(t *testing.T) {
	raw := json.RawMessage(`[
		{"name":"Registry","kind":23,
		 "location":{"uri":"file:///proj/registry.go","range":{"start":{"line":9,"character":5},"end":{"line":9,"character":13}}}},
		{"name":"Dispatcher","kind":23,"location":{"uri":"file:///proj/dispatch.go"},"data":{"id":7}}
	]`)

	items := WorkspaceSymbols(raw, testClient, testReqCtx())
	require.Len(t, items, 2)

	assert.Equal(t, "[Struct]        Registry", items[0].Word)
	require.NotNil(t, items[0].Action.Range)
	assert.Equal(t, protocol.Position{Line: 9, Character: 5}, items[0].Action.Range.Start)

	// Range-less symbols stay listed and resolve lazily on use.
	assert.Equal(t, "/proj/dispatch.go", items[1].Action.Path)
	assert.Nil(t, items[1].Action.Range)
}
