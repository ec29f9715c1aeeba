package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsp-finder/src/internal/types"
)

func TestCodeActionsBareCommand(t *testing.T) {
	raw := json.RawMessage(`[{
		"title": "Organize imports",
		"command": "editor.organizeImports",
		"arguments": ["file:///proj/a.ts"]
	}]`)

	items := CodeActions(raw, testClient, types.MethodTextDocumentCodeAction, testReqCtx())
	require.Len(t, items, 1)

	record := items[0].CodeAction
	require.NotNil(t, record)
	assert.Equal(t, "Organize imports", items[0].Word)
	require.NotNil(t, record.Command)
	assert.Equal(t, "editor.organizeImports", record.Command.Command)
	require.Len(t, record.Command.Arguments, 1)
	assert.Empty(t, record.Edit)
}

func TestCodeActionsWithEdit(t *testing.T) {
	raw := json.RawMessage(`[{
		"title": "Add missing return",
		"kind": "quickfix",
		"edit": {"changes": {"file:///proj/a.ts": [
			{"range":{"start":{"line":3,"character":0},"end":{"line":3,"character":0}},"newText":"return nil\n"}
		]}}
	}]`)

	items := CodeActions(raw, testClient, types.MethodTextDocumentCodeAction, testReqCtx())
	require.Len(t, items, 1)

	record := items[0].CodeAction
	assert.NotEmpty(t, record.Edit)
	assert.Nil(t, record.Command)
	assert.JSONEq(t, string(items[0].Data), string(raw[1:len(raw)-1]))
}

func TestCodeActionsWithObjectCommand(t *testing.T) {
	raw := json.RawMessage(`[{
		"title": "Extract function",
		"edit": {"changes": {}},
		"command": {"title": "Extract function", "command": "editor.applyRefactor", "arguments": [{"id": 3}]}
	}]`)

	items := CodeActions(raw, testClient, types.MethodTextDocumentCodeAction, testReqCtx())
	require.Len(t, items, 1)

	record := items[0].CodeAction
	assert.NotEmpty(t, record.Edit)
	require.NotNil(t, record.Command)
	assert.Equal(t, "editor.applyRefactor", record.Command.Command)
}

func TestCodeActionsUnresolved(t *testing.T) {
	raw := json.RawMessage(`[{"title": "Fix all", "kind": "source.fixAll", "data": {"id": 1}}]`)

	items := CodeActions(raw, testClient, types.MethodTextDocumentCodeAction, testReqCtx())
	require.Len(t, items, 1)

	record := items[0].CodeAction
	assert.Empty(t, record.Edit)
	assert.Nil(t, record.Command)
	assert.Equal(t, types.ResolveStateUnresolved, record.State)
	assert.NotEmpty(t, items[0].Data, "lazily resolved actions need their original payload")
}

func TestCodeActionsNull(t *testing.T) {
	assert.Empty(t, CodeActions(json.RawMessage(`null`), testClient, types.MethodTextDocumentCodeAction, testReqCtx()))
	assert.Empty(t, CodeActions(nil, testClient, types.MethodTextDocumentCodeAction, testReqCtx()))
}
