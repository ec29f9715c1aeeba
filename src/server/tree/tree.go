// Package tree builds lazily expanded item hierarchies. A node's
// children are searched once, when the node is first peeked at, and cached
// on the node; expanding later re-emits the cache instead of repeating
// the request.
package tree

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lsp-finder/src/internal/types"
)

// ChildSearcher fetches and normalizes the children of parent. A nil,
// empty result marks the parent as a leaf.
type ChildSearcher func(ctx context.Context, parent *types.Item) ([]*types.Item, error)

// EmitFunc receives one batch of items. Batches for one listing arrive
// in order; root items always precede any auto-expanded children.
type EmitFunc func(items []*types.Item)

// Builder peeks at and expands hierarchy items.
type Builder struct {
	search           ChildSearcher
	autoExpandSingle bool
}

func NewBuilder(search ChildSearcher, autoExpandSingle bool) *Builder {
	return &Builder{search: search, autoExpandSingle: autoExpandSingle}
}

// peek settles the node once. An already settled node is left untouched;
// otherwise its children are searched, cached, and IsTree is settled.
func (b *Builder) peek(ctx context.Context, item *types.Item) error {
	if item.IsTree != nil {
		return nil
	}
	children, err := b.search(ctx, item)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		item.Tree(true)
		item.Children = children
	} else {
		item.Tree(false)
	}
	return nil
}

func (b *Builder) peekAll(ctx context.Context, items []*types.Item) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		item := item
		g.Go(func() error {
			return b.peek(gctx, item)
		})
	}
	return g.Wait()
}

// Roots settles the prepared root items and emits them. When exactly one
// root arrives and it has children, the root is emitted pre-expanded
// with its settled children as a second batch.
func (b *Builder) Roots(ctx context.Context, roots []*types.Item, emit EmitFunc) error {
	if len(roots) == 0 {
		return nil
	}
	if err := b.peekAll(ctx, roots); err != nil {
		return err
	}
	emit(roots)

	if b.autoExpandSingle && len(roots) == 1 && len(roots[0].Children) > 0 {
		roots[0].IsExpanded = true
		children := roots[0].Children
		if err := b.peekAll(ctx, children); err != nil {
			return err
		}
		for _, child := range children {
			child.Level = 1
		}
		emit(children)
	}
	return nil
}

// Expand emits the cached children of item, each checked for its own
// children. Only the expanded node and its children are mutated;
// siblings are never touched.
func (b *Builder) Expand(ctx context.Context, item *types.Item, emit EmitFunc) error {
	children := item.Children
	if len(children) == 0 {
		return nil
	}
	if err := b.peekAll(ctx, children); err != nil {
		return err
	}
	for _, child := range children {
		child.Level = item.Level + 1
	}
	item.IsExpanded = true
	emit(children)
	return nil
}
