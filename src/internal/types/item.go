package types

import (
	"encoding/json"

	"go.lsp.dev/protocol"
)

// ItemContext records where an item came from: the answering client, the
// requesting buffer and the originating method. It is carried on the item
// so that later resolve calls can be routed back to the same client.
type ItemContext struct {
	Client Client `json:"client"`
	BufNr  int    `json:"bufnr"`
	Method string `json:"method"`
}

// ResolveState tags the lazy-resolve lifecycle of an action record.
// Illegal transitions (double resolve, resolve of a failed record) are
// checked by the executor against this tag.
type ResolveState int

const (
	// ResolveStateUnresolved means no resolve round-trip has happened.
	ResolveStateUnresolved ResolveState = iota
	// ResolveStateResolving means a resolve round-trip is in flight.
	ResolveStateResolving
	// ResolveStateResolved means the record carries its final values.
	ResolveStateResolved
	// ResolveStateFailed means the resolve round-trip failed; retrying
	// is pointless and the stored error is returned instead.
	ResolveStateFailed
)

// Action is the navigation payload attached to an item. At least one of
// BufNr and Path is set at normalization time. Range may be absent for an
// unresolved workspace symbol until workspaceSymbol/resolve fills it in.
type Action struct {
	BufNr int    `json:"bufnr,omitempty"`
	Path  string `json:"path,omitempty"`

	Range *protocol.Range `json:"range,omitempty"`

	Context ItemContext `json:"context"`

	// Lnum and Col are 1-indexed editor coordinates, filled by the
	// executor after offset decoding.
	Lnum int `json:"lnum,omitempty"`
	Col  int `json:"col,omitempty"`

	State ResolveState `json:"-"`
}

// CodeActionRecord is the payload attached to a code action item. Either
// Edit or Command may be present; when both are absent a
// codeAction/resolve round-trip is required before the edit is known.
type CodeActionRecord struct {
	Edit    json.RawMessage   `json:"edit,omitempty"`
	Command *protocol.Command `json:"command,omitempty"`

	Context ItemContext `json:"context"`

	State ResolveState `json:"-"`
}

// Item is the common output unit rendered by the finder UI.
type Item struct {
	// Word is the matchable text; Display, when set, is shown instead.
	Word    string `json:"word"`
	Display string `json:"display,omitempty"`

	// Exactly one of Action and CodeAction is populated, tagging which
	// family the item belongs to.
	Action     *Action           `json:"action,omitempty"`
	CodeAction *CodeActionRecord `json:"codeAction,omitempty"`

	// Data keeps the original protocol payload for later resolve calls.
	Data json.RawMessage `json:"data,omitempty"`

	// TreePath addresses the item inside a lazily expanded hierarchy.
	// Segments, not a delimited string: names may contain separators.
	TreePath []string `json:"treePath,omitempty"`

	// IsTree is nil while the node is unsettled, false for a proven
	// leaf, true for an expandable node.
	IsTree     *bool `json:"isTree,omitempty"`
	IsExpanded bool  `json:"isExpanded,omitempty"`
	Level      int   `json:"level,omitempty"`

	// Children is populated only after a peek or expand; the cached
	// slice is what an expand call re-enqueues.
	Children []*Item `json:"-"`

	// Highlights are rendering hints passed through untouched.
	Highlights json.RawMessage `json:"highlights,omitempty"`
}

// Tree marks the item expandable or a proven leaf.
func (it *Item) Tree(isTree bool) {
	it.IsTree = &isTree
}

// ResolvedAction is the executor's final answer for a navigation item:
// a concrete buffer, path and 1-indexed cursor position.
type ResolvedAction struct {
	BufNr int    `json:"bufnr"`
	Path  string `json:"path"`
	Lnum  int    `json:"lnum"`
	Col   int    `json:"col"`
}
