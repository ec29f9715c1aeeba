package source

import (
	"encoding/json"

	"go.lsp.dev/protocol"

	"lsp-finder/src/internal/types"
	"lsp-finder/src/utils/jsonutil"
)

// actionUnion sniffs whether a codeAction array element is a bare
// Command or a CodeAction. A string command field means the whole
// element is a Command; a CodeAction's command field is an object.
type actionUnion struct {
	Title   string          `json:"title"`
	Command json.RawMessage `json:"command,omitempty"`
	Edit    json.RawMessage `json:"edit,omitempty"`
}

func (a *actionUnion) isBareCommand() bool {
	return len(a.Command) > 0 && a.Command[0] == '"'
}

// CodeActions builds items for a textDocument/codeAction result. A bare
// Command is wrapped whole; a CodeAction contributes its edit and
// command fields. Actions with neither get resolved lazily on execute.
func CodeActions(raw json.RawMessage, client types.Client, method string, reqCtx RequestContext) []*types.Item {
	elements, ok := jsonutil.Decode[[]json.RawMessage](raw)
	if !ok {
		return nil
	}

	itemCtx := types.ItemContext{Client: client, BufNr: reqCtx.BufNr, Method: method}
	items := make([]*types.Item, 0, len(elements))
	for _, element := range elements {
		action, ok := jsonutil.Decode[actionUnion](element)
		if !ok {
			continue
		}

		record := &types.CodeActionRecord{Context: itemCtx}
		if action.isBareCommand() {
			if cmd, ok := jsonutil.Decode[protocol.Command](element); ok {
				record.Command = &cmd
			}
		} else {
			record.Edit = action.Edit
			if len(action.Command) > 0 {
				if cmd, ok := jsonutil.Decode[protocol.Command](action.Command); ok {
					record.Command = &cmd
				}
			}
		}

		items = append(items, &types.Item{
			Word:       action.Title,
			CodeAction: record,
			Data:       element,
		})
	}
	return items
}
