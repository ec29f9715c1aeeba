package types

import (
	"go.lsp.dev/protocol"
)

// PositionBefore reports whether a is lexicographically before-or-equal
// to b, line first then character.
func PositionBefore(a, b protocol.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character <= b.Character
}

// NormalizeRange swaps a reversed range so start <= end. Applying it
// twice is the same as applying it once.
func NormalizeRange(r protocol.Range) protocol.Range {
	if PositionBefore(r.Start, r.End) {
		return r
	}
	return protocol.Range{Start: r.End, End: r.Start}
}
