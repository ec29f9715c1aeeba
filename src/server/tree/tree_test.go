package tree

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsp-finder/src/internal/types"
)

// fakeSearcher maps a parent word to its children and counts searches
// per word.
type fakeSearcher struct {
	mu       sync.Mutex
	children map[string][]string
	searched map[string]int
	failOn   string
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		children: make(map[string][]string),
		searched: make(map[string]int),
	}
}

func (f *fakeSearcher) withChildren(parent string, children ...string) *fakeSearcher {
	f.children[parent] = children
	return f
}

func (f *fakeSearcher) withFailure(parent string) *fakeSearcher {
	f.failOn = parent
	return f
}

func (f *fakeSearcher) search(_ context.Context, parent *types.Item) ([]*types.Item, error) {
	f.mu.Lock()
	f.searched[parent.Word]++
	f.mu.Unlock()
	if parent.Word == f.failOn {
		return nil, fmt.Errorf("search failed for %s", parent.Word)
	}
	names := f.children[parent.Word]
	items := make([]*types.Item, 0, len(names))
	for _, name := range names {
		items = append(items, &types.Item{Word: name})
	}
	return items, nil
}

func collect(batches *[][]*types.Item) EmitFunc {
	return func(items []*types.Item) {
		*batches = append(*batches, items)
	}
}

func TestRootsSettlesAndEmits(t *testing.T) {
	s := newFakeSearcher().withChildren("a", "a1", "a2")
	b := NewBuilder(s.search, false)

	roots := []*types.Item{{Word: "a"}, {Word: "b"}}
	var batches [][]*types.Item
	require.NoError(t, b.Roots(context.Background(), roots, collect(&batches)))

	require.Len(t, batches, 1)
	require.NotNil(t, roots[0].IsTree)
	assert.True(t, *roots[0].IsTree)
	assert.Len(t, roots[0].Children, 2)
	require.NotNil(t, roots[1].IsTree)
	assert.False(t, *roots[1].IsTree)
	assert.False(t, roots[0].IsExpanded)
}

func TestRootsAutoExpandSingle(t *testing.T) {
	s := newFakeSearcher().
		withChildren("a", "a1", "a2").
		withChildren("a1", "a1x")
	b := NewBuilder(s.search, true)

	roots := []*types.Item{{Word: "a"}}
	var batches [][]*types.Item
	require.NoError(t, b.Roots(context.Background(), roots, collect(&batches)))

	require.Len(t, batches, 2, "single expandable root emits its children as a second batch")
	assert.True(t, roots[0].IsExpanded)

	children := batches[1]
	require.Len(t, children, 2)
	assert.Equal(t, 1, children[0].Level)
	require.NotNil(t, children[0].IsTree)
	assert.True(t, *children[0].IsTree, "auto-expanded children are settled in turn")
	assert.False(t, *children[1].IsTree)
}

func TestRootsNoAutoExpandWithSeveralRoots(t *testing.T) {
	s := newFakeSearcher().withChildren("a", "a1")
	b := NewBuilder(s.search, true)

	roots := []*types.Item{{Word: "a"}, {Word: "b"}}
	var batches [][]*types.Item
	require.NoError(t, b.Roots(context.Background(), roots, collect(&batches)))
	assert.Len(t, batches, 1)
	assert.False(t, roots[0].IsExpanded)
}

func TestExpandLeavesSiblingsAlone(t *testing.T) {
	s := newFakeSearcher().
		withChildren("a", "a1", "a2").
		withChildren("b", "b1")
	b := NewBuilder(s.search, false)

	roots := []*types.Item{{Word: "a"}, {Word: "b"}}
	require.NoError(t, b.Roots(context.Background(), roots, func([]*types.Item) {}))

	sibling := *roots[1]

	var batches [][]*types.Item
	require.NoError(t, b.Expand(context.Background(), roots[0], collect(&batches)))

	require.Len(t, batches, 1)
	assert.True(t, roots[0].IsExpanded)
	assert.Equal(t, sibling, *roots[1], "expanding one node must not mutate its sibling")
}

func TestExpandSetsChildLevels(t *testing.T) {
	s := newFakeSearcher().withChildren("a", "a1")
	b := NewBuilder(s.search, false)

	parent := &types.Item{Word: "a", Level: 2}
	require.NoError(t, b.peek(context.Background(), parent))

	var batches [][]*types.Item
	require.NoError(t, b.Expand(context.Background(), parent, collect(&batches)))
	require.Len(t, batches, 1)
	assert.Equal(t, 3, batches[0][0].Level)
}

func TestPeekCachesChildren(t *testing.T) {
	s := newFakeSearcher().withChildren("a", "a1")
	b := NewBuilder(s.search, false)

	item := &types.Item{Word: "a"}
	require.NoError(t, b.peek(context.Background(), item))
	require.NoError(t, b.peek(context.Background(), item))
	assert.Equal(t, 1, s.searched["a"], "a settled node is never searched again")

	var batches [][]*types.Item
	require.NoError(t, b.Expand(context.Background(), item, collect(&batches)))
	assert.Equal(t, 1, s.searched["a"], "expand re-emits the cache instead of repeating the request")
}

func TestExpandLeaf(t *testing.T) {
	b := NewBuilder(newFakeSearcher().search, false)
	leaf := &types.Item{Word: "x"}
	leaf.Tree(false)

	var batches [][]*types.Item
	require.NoError(t, b.Expand(context.Background(), leaf, collect(&batches)))
	assert.Empty(t, batches)
}

func TestRootsSearchFailure(t *testing.T) {
	s := newFakeSearcher().withFailure("a")
	b := NewBuilder(s.search, false)

	err := b.Roots(context.Background(), []*types.Item{{Word: "a"}}, func([]*types.Item) {})
	assert.Error(t, err)
}
