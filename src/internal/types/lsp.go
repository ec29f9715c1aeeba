package types

import (
	"encoding/json"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// LSP 3.17 shapes that go.lsp.dev/protocol does not carry yet, declared
// with spec-exact field names so the wire stays compatible.

// WorkspaceSymbolLocation is either a full Location or a bare {uri}; the
// range is absent until workspaceSymbol/resolve is called.
type WorkspaceSymbolLocation struct {
	URI   uri.URI         `json:"uri"`
	Range *protocol.Range `json:"range,omitempty"`
}

// WorkspaceSymbol is the workspace/symbol result shape. Unlike
// SymbolInformation its location may be unresolved.
type WorkspaceSymbol struct {
	Name          string                  `json:"name"`
	Kind          protocol.SymbolKind     `json:"kind"`
	Tags          []protocol.SymbolTag    `json:"tags,omitempty"`
	ContainerName string                  `json:"containerName,omitempty"`
	Location      WorkspaceSymbolLocation `json:"location"`
	Data          json.RawMessage         `json:"data,omitempty"`
}

// TypeHierarchyItem is the textDocument/prepareTypeHierarchy result shape.
type TypeHierarchyItem struct {
	Name           string               `json:"name"`
	Kind           protocol.SymbolKind  `json:"kind"`
	Tags           []protocol.SymbolTag `json:"tags,omitempty"`
	Detail         string               `json:"detail,omitempty"`
	URI            uri.URI              `json:"uri"`
	Range          protocol.Range       `json:"range"`
	SelectionRange protocol.Range       `json:"selectionRange"`
	Data           json.RawMessage      `json:"data,omitempty"`
}

// Diagnostic is the normalized shape shared by the three backend
// diagnostic stores. Severity 0 means the server omitted it; sorting
// treats that as Error without promoting the stored value.
type Diagnostic struct {
	BufNr    int                         `json:"bufnr"`
	Path     string                      `json:"path,omitempty"`
	Range    protocol.Range              `json:"range"`
	Severity protocol.DiagnosticSeverity `json:"severity,omitempty"`
	Message  string                      `json:"message"`
	Source   string                      `json:"source,omitempty"`
	Code     interface{}                 `json:"code,omitempty"`
}
