// Package source normalizes raw LSP payloads into finder items, one
// normalizer per method family. Malformed payloads are dropped with a
// logged warning; they never abort a listing.
package source

import (
	"strings"

	"lsp-finder/src/internal/types"
)

// RequestContext carries the editor state a normalization run needs.
// Threaded explicitly so normalizers never query ambient editor state
// mid-algorithm.
type RequestContext struct {
	BufNr int
	WinID int
	Cwd   string
}

// IsValidItem filters out items whose path cannot be opened: deno
// virtual documents with a fragment address generated code that has no
// buffer representation.
func IsValidItem(item *types.Item) bool {
	if item.Action == nil || item.Action.Path == "" {
		return true
	}
	return !isDenoURIWithFragment(item.Action.Path)
}

func isDenoURIWithFragment(path string) bool {
	if !strings.HasPrefix(path, "deno:") {
		return false
	}
	return strings.ContainsAny(path, "#") || strings.Contains(path, "%23")
}

func filterValid(items []*types.Item) []*types.Item {
	out := items[:0]
	for _, item := range items {
		if IsValidItem(item) {
			out = append(out, item)
		}
	}
	return out
}
