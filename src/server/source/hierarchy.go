package source

import (
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"

	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/utils"
	"lsp-finder/src/utils/jsonutil"
)

// PrepareCallHierarchy normalizes a textDocument/prepareCallHierarchy
// result into root items. Each item carries the raw CallHierarchyItem in
// Data so child searches can send it back verbatim.
func PrepareCallHierarchy(raw json.RawMessage, client types.Client, method string, reqCtx RequestContext) []*types.Item {
	calls, ok := jsonutil.Decode[[]protocol.CallHierarchyItem](raw)
	if !ok {
		return nil
	}

	itemCtx := types.ItemContext{Client: client, BufNr: reqCtx.BufNr, Method: method}
	items := make([]*types.Item, 0, len(calls))
	for _, call := range calls {
		r := call.Range
		items = append(items, &types.Item{
			Word: call.Name,
			Action: &types.Action{
				Path:    utils.URIToFilePath(string(call.URI)),
				Range:   &r,
				Context: itemCtx,
			},
			TreePath: []string{call.Name},
			Data:     marshalData(call),
		})
	}
	return filterValid(items)
}

// callUnion decodes both CallHierarchyIncomingCall and
// CallHierarchyOutgoingCall; the direction is distinguished by which
// link field is populated.
type callUnion struct {
	From       *protocol.CallHierarchyItem `json:"from,omitempty"`
	To         *protocol.CallHierarchyItem `json:"to,omitempty"`
	FromRanges []protocol.Range            `json:"fromRanges"`
}

// CallHierarchyCalls normalizes a callHierarchy/incomingCalls or
// callHierarchy/outgoingCalls result into children of parent. One item
// is produced per distinct calling range; incoming calls resolve their
// path from the linked item, outgoing calls stay in the parent's file.
func CallHierarchyCalls(raw json.RawMessage, parent *types.Item, method string, cwd string) []*types.Item {
	calls, ok := jsonutil.Decode[[]callUnion](raw)
	if !ok {
		return nil
	}

	itemCtx := parent.Action.Context
	var items []*types.Item
	for _, call := range calls {
		link := call.From
		path := ""
		if link != nil {
			path = utils.URIToFilePath(string(link.URI))
		} else {
			link = call.To
			path = parent.Action.Path
		}
		if link == nil {
			common.SourceLogger.Warn("dropping call without from or to link")
			continue
		}
		relPath := utils.RelativePath(cwd, path)

		for _, rng := range dedupRanges(call.FromRanges) {
			lnum := rng.Start.Line + 1
			col := rng.Start.Character + 1
			display := fmt.Sprintf("%s (%s:%d:%d)", link.Name, relPath, lnum, col)

			r := rng
			items = append(items, &types.Item{
				Word:     link.Name,
				Display:  display,
				TreePath: append(append([]string{}, parent.TreePath...), display),
				Action: &types.Action{
					Path:    path,
					Range:   &r,
					Context: types.ItemContext{Client: itemCtx.Client, BufNr: itemCtx.BufNr, Method: method},
				},
				Data: marshalData(*link),
			})
		}
	}
	return filterValid(items)
}

func dedupRanges(ranges []protocol.Range) []protocol.Range {
	seen := make(map[string]struct{}, len(ranges))
	out := make([]protocol.Range, 0, len(ranges))
	for _, r := range ranges {
		hash := fmt.Sprintf("%d:%d:%d:%d", r.Start.Line, r.Start.Character, r.End.Line, r.End.Character)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		out = append(out, r)
	}
	return out
}

// PrepareTypeHierarchy normalizes a textDocument/prepareTypeHierarchy
// result into root items.
func PrepareTypeHierarchy(raw json.RawMessage, client types.Client, method string, reqCtx RequestContext) []*types.Item {
	itemCtx := types.ItemContext{Client: client, BufNr: reqCtx.BufNr, Method: method}
	return typeHierarchyItems(raw, itemCtx, nil)
}

// TypeHierarchyChildren normalizes a typeHierarchy/supertypes or
// typeHierarchy/subtypes result into children of parent.
func TypeHierarchyChildren(raw json.RawMessage, parent *types.Item, method string) []*types.Item {
	itemCtx := parent.Action.Context
	itemCtx.Method = method
	return typeHierarchyItems(raw, itemCtx, parent.TreePath)
}

func typeHierarchyItems(raw json.RawMessage, itemCtx types.ItemContext, parentPath []string) []*types.Item {
	hierarchy, ok := jsonutil.Decode[[]types.TypeHierarchyItem](raw)
	if !ok {
		return nil
	}

	items := make([]*types.Item, 0, len(hierarchy))
	for _, th := range hierarchy {
		r := th.Range
		items = append(items, &types.Item{
			Word:     th.Name,
			TreePath: append(append([]string{}, parentPath...), th.Name),
			Action: &types.Action{
				Path:    utils.URIToFilePath(string(th.URI)),
				Range:   &r,
				Context: itemCtx,
			},
			Data: marshalData(th),
		})
	}
	return filterValid(items)
}
