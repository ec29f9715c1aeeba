package source

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.lsp.dev/protocol"

	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/utils"
)

// kindNames follows the LSP SymbolKind table. Unknown kinds render as
// Unknown rather than failing the listing.
var kindNames = map[protocol.SymbolKind]string{
	protocol.SymbolKindFile:          "File",
	protocol.SymbolKindModule:        "Module",
	protocol.SymbolKindNamespace:     "Namespace",
	protocol.SymbolKindPackage:       "Package",
	protocol.SymbolKindClass:         "Class",
	protocol.SymbolKindMethod:        "Method",
	protocol.SymbolKindProperty:      "Property",
	protocol.SymbolKindField:         "Field",
	protocol.SymbolKindConstructor:   "Constructor",
	protocol.SymbolKindEnum:          "Enum",
	protocol.SymbolKindInterface:     "Interface",
	protocol.SymbolKindFunction:      "Function",
	protocol.SymbolKindVariable:      "Variable",
	protocol.SymbolKindConstant:      "Constant",
	protocol.SymbolKindString:        "String",
	protocol.SymbolKindNumber:        "Number",
	protocol.SymbolKindBoolean:       "Boolean",
	protocol.SymbolKindArray:         "Array",
	protocol.SymbolKindObject:        "Object",
	protocol.SymbolKindKey:           "Key",
	protocol.SymbolKindNull:          "Null",
	protocol.SymbolKindEnumMember:    "EnumMember",
	protocol.SymbolKindStruct:        "Struct",
	protocol.SymbolKindEvent:         "Event",
	protocol.SymbolKindOperator:      "Operator",
	protocol.SymbolKindTypeParameter: "TypeParameter",
}

// KindName returns the display name for a symbol kind.
func KindName(kind protocol.SymbolKind) string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return "Unknown"
}

func kindPrefix(kind protocol.SymbolKind) string {
	return fmt.Sprintf("%-15s", "["+KindName(kind)+"]")
}

// symbolUnion covers SymbolInformation (location) and DocumentSymbol
// (range/selectionRange/children); one element is never both.
type symbolUnion struct {
	Name           string              `json:"name"`
	Kind           protocol.SymbolKind `json:"kind"`
	ContainerName  string              `json:"containerName,omitempty"`
	Location       *protocol.Location  `json:"location,omitempty"`
	Range          *protocol.Range     `json:"range,omitempty"`
	SelectionRange *protocol.Range     `json:"selectionRange,omitempty"`
	Children       []symbolUnion       `json:"children,omitempty"`
}

// DocumentSymbols builds one item per symbol of a documentSymbol
// result. Nested document symbols are recursed eagerly (the trees are
// small); each level appends the symbol name to the treePath and
// siblings are ordered by ascending start position.
func DocumentSymbols(raw json.RawMessage, client types.Client, reqCtx RequestContext) []*types.Item {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var symbols []symbolUnion
	if err := json.Unmarshal(raw, &symbols); err != nil {
		common.SourceLogger.Warn("dropping malformed documentSymbol payload: %v", err)
		return nil
	}

	itemCtx := types.ItemContext{Client: client, BufNr: reqCtx.BufNr, Method: types.MethodTextDocumentDocumentSymbol}
	return symbolsToItems(symbols, nil, 0, itemCtx)
}

func symbolsToItems(symbols []symbolUnion, parentPath []string, level int, itemCtx types.ItemContext) []*types.Item {
	items := make([]*types.Item, 0, len(symbols))
	for _, sym := range symbols {
		item := symbolToItem(sym, parentPath, level, itemCtx)
		if item == nil || !IsValidItem(item) {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Action.Range, items[j].Action.Range
		if ri.Start.Line != rj.Start.Line {
			return ri.Start.Line < rj.Start.Line
		}
		return ri.Start.Character < rj.Start.Character
	})
	return items
}

func symbolToItem(sym symbolUnion, parentPath []string, level int, itemCtx types.ItemContext) *types.Item {
	item := &types.Item{
		Word:  kindPrefix(sym.Kind) + " " + sym.Name,
		Level: level,
		Data:  marshalData(sym),
	}

	switch {
	case sym.Location != nil:
		// SymbolInformation: flat shape, always a leaf.
		r := sym.Location.Range
		item.Action = &types.Action{
			Path:    utils.URIToFilePath(string(sym.Location.URI)),
			Range:   &r,
			Context: itemCtx,
		}
	case sym.SelectionRange != nil:
		r := *sym.SelectionRange
		item.Action = &types.Action{
			BufNr:   itemCtx.BufNr,
			Range:   &r,
			Context: itemCtx,
		}
		item.TreePath = append(append([]string(nil), parentPath...), sym.Name)
		if len(sym.Children) > 0 {
			item.Tree(true)
			item.Children = symbolsToItems(sym.Children, item.TreePath, level+1, itemCtx)
		} else {
			item.Tree(false)
		}
	default:
		common.SourceLogger.Warn("dropping symbol %q without location or selectionRange", sym.Name)
		return nil
	}
	return item
}

// WorkspaceSymbols builds items from a workspace/symbol result. A
// symbol may arrive unresolved (location without a range); its item
// then carries a resolve-later action that fires workspaceSymbol/resolve
// only when the item is actually used.
func WorkspaceSymbols(raw json.RawMessage, client types.Client, reqCtx RequestContext) []*types.Item {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var symbols []types.WorkspaceSymbol
	if err := json.Unmarshal(raw, &symbols); err != nil {
		common.SourceLogger.Warn("dropping malformed workspace/symbol payload: %v", err)
		return nil
	}

	itemCtx := types.ItemContext{Client: client, BufNr: reqCtx.BufNr, Method: types.MethodWorkspaceSymbol}
	items := make([]*types.Item, 0, len(symbols))
	for _, sym := range symbols {
		action := &types.Action{
			Path:    utils.URIToFilePath(string(sym.Location.URI)),
			Context: itemCtx,
		}
		if sym.Location.Range != nil {
			r := *sym.Location.Range
			action.Range = &r
		}
		items = append(items, &types.Item{
			Word:   kindPrefix(sym.Kind) + " " + sym.Name,
			Action: action,
			Data:   marshalData(sym),
		})
	}
	return filterValid(items)
}
