package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
)

func pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func TestPositionBefore(t *testing.T) {
	assert.True(t, PositionBefore(pos(1, 5), pos(2, 0)))
	assert.True(t, PositionBefore(pos(2, 3), pos(2, 7)))
	assert.True(t, PositionBefore(pos(2, 7), pos(2, 7)), "equal positions count as before")
	assert.False(t, PositionBefore(pos(2, 8), pos(2, 7)))
	assert.False(t, PositionBefore(pos(3, 0), pos(2, 99)))
}

func TestNormalizeRange(t *testing.T) {
	ordered := protocol.Range{Start: pos(1, 2), End: pos(3, 4)}
	assert.Equal(t, ordered, NormalizeRange(ordered))

	reversed := protocol.Range{Start: pos(3, 4), End: pos(1, 2)}
	assert.Equal(t, ordered, NormalizeRange(reversed))

	sameLine := protocol.Range{Start: pos(5, 10), End: pos(5, 2)}
	assert.Equal(t, protocol.Range{Start: pos(5, 2), End: pos(5, 10)}, NormalizeRange(sameLine))

	empty := protocol.Range{Start: pos(5, 5), End: pos(5, 5)}
	assert.Equal(t, empty, NormalizeRange(empty))
}

func TestNormalizeRangeIdempotent(t *testing.T) {
	r := NormalizeRange(protocol.Range{Start: pos(9, 9), End: pos(0, 0)})
	assert.Equal(t, r, NormalizeRange(r))
}
