package source

import (
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"

	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/utils"
)

// locationUnion decodes both Location and LocationLink; the two shapes
// are distinguished by which URI field is populated.
type locationUnion struct {
	URI   string          `json:"uri,omitempty"`
	Range *protocol.Range `json:"range,omitempty"`

	TargetURI            string          `json:"targetUri,omitempty"`
	TargetRange          *protocol.Range `json:"targetRange,omitempty"`
	TargetSelectionRange *protocol.Range `json:"targetSelectionRange,omitempty"`
}

func (l *locationUnion) location() (string, *protocol.Range) {
	if l.URI != "" {
		return l.URI, l.Range
	}
	return l.TargetURI, l.TargetSelectionRange
}

// ParseLocations normalizes the go-to-location result shapes: a single
// Location, a Location array, or a LocationLink array. A JSON null
// yields no items.
func ParseLocations(raw json.RawMessage) []locationUnion {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var many []locationUnion
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}

	var one locationUnion
	if err := json.Unmarshal(raw, &one); err == nil {
		return []locationUnion{one}
	}

	common.SourceLogger.Warn("dropping malformed location payload")
	return nil
}

// Locations builds items for the definition/declaration/typeDefinition/
// implementation/references family. Display is advisory text, so the
// 1-indexed line:column is derived by plain +1 on the protocol position
// with no encoding conversion.
func Locations(raw json.RawMessage, client types.Client, method string, reqCtx RequestContext) []*types.Item {
	locations := ParseLocations(raw)
	if len(locations) == 0 {
		return nil
	}

	itemCtx := types.ItemContext{Client: client, BufNr: reqCtx.BufNr, Method: method}
	items := make([]*types.Item, 0, len(locations))
	for _, loc := range locations {
		item := locationToItem(loc, reqCtx.Cwd, itemCtx)
		if item == nil {
			continue
		}
		items = append(items, item)
	}
	return filterValid(items)
}

func locationToItem(loc locationUnion, cwd string, itemCtx types.ItemContext) *types.Item {
	uriStr, rng := loc.location()
	if uriStr == "" || rng == nil {
		common.SourceLogger.Warn("dropping location without uri or range")
		return nil
	}

	path := utils.URIToFilePath(uriStr)
	relPath := utils.RelativePath(cwd, path)
	lnum := rng.Start.Line + 1
	col := rng.Start.Character + 1

	r := *rng
	return &types.Item{
		Word:    relPath,
		Display: fmt.Sprintf("%s:%d:%d", relPath, lnum, col),
		Action: &types.Action{
			Path:    path,
			Range:   &r,
			Context: itemCtx,
		},
		Data: marshalData(loc),
	}
}

func marshalData(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
