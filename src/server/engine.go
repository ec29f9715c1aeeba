// Package server wires the finder together: registry, dispatcher,
// normalizers, tree builder and executor behind one facade consumed by
// the gateway.
package server

import (
	"context"
	"encoding/json"

	"lsp-finder/src/config"
	"lsp-finder/src/editor"
	"lsp-finder/src/host"
	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/server/clients"
	"lsp-finder/src/server/dispatch"
	"lsp-finder/src/server/kind"
	"lsp-finder/src/server/source"
	"lsp-finder/src/server/tree"
)

// ListRequest describes one listing: which client ecosystem, which
// method, and where in the editor the request originates.
type ListRequest struct {
	ClientName types.ClientName `json:"clientName"`
	Method     string           `json:"method"`
	BufNr      int              `json:"bufnr"`
	WinID      int              `json:"winId"`

	// Query feeds workspace/symbol.
	Query string `json:"query,omitempty"`
}

// DiagnosticsRequest describes one diagnostics listing. Buffers nil
// means the whole workspace; a 0 entry means the requesting buffer.
type DiagnosticsRequest struct {
	ClientName types.ClientName `json:"clientName"`
	BufNr      int              `json:"bufnr"`
	Buffers    []int            `json:"buffers,omitempty"`
}

// Engine is the finder facade.
type Engine struct {
	cfg        *config.Config
	buffers    editor.BufferService
	registry   *clients.Registry
	dispatcher *dispatch.Dispatcher
	params     *source.ParamsBuilder
	aggregator *source.Aggregator
	executor   *kind.Executor
}

// NewEngine builds a fully wired engine over the editor bridge.
func NewEngine(cfg *config.Config, h host.Host, buffers editor.BufferService) *Engine {
	registry := clients.NewRegistry(h, cfg.RequestTimeout())
	dispatcher := dispatch.NewDispatcher(registry).WithOverallTimeout(cfg.OverallTimeout())
	aggregator := source.NewAggregator(h, buffers)
	return &Engine{
		cfg:        cfg,
		buffers:    buffers,
		registry:   registry,
		dispatcher: dispatcher,
		params:     source.NewParamsBuilder(buffers, aggregator),
		aggregator: aggregator,
		executor:   kind.NewExecutor(dispatcher, buffers),
	}
}

// NewEngineWith builds an engine over explicit collaborators. Test
// seam; production wiring goes through NewEngine.
func NewEngineWith(cfg *config.Config, buffers editor.BufferService, registry *clients.Registry, aggregator *source.Aggregator) *Engine {
	dispatcher := dispatch.NewDispatcher(registry).WithOverallTimeout(cfg.OverallTimeout())
	return &Engine{
		cfg:        cfg,
		buffers:    buffers,
		registry:   registry,
		dispatcher: dispatcher,
		params:     source.NewParamsBuilder(buffers, aggregator),
		aggregator: aggregator,
		executor:   kind.NewExecutor(dispatcher, buffers),
	}
}

// Listing is one running ListItems call. Batches carries one slice per
// responding client, plus extra slices when a lone hierarchy root is
// expanded automatically; batch order across clients is unspecified.
type Listing struct {
	Batches <-chan []*types.Item
	err     error
}

// Err reports the terminal status of the listing: nil on success, a
// NoClientsError when nothing was attached, an UnsupportedError when
// every client declined the method, or the aggregate failure. Only
// valid once Batches is closed.
func (l *Listing) Err() error { return l.err }

// ListItems runs one listing and streams item batches on the returned
// Listing. An empty listing is not an error here; the distinction
// between no-clients, unsupported and failure is on Listing.Err so the
// caller can still show it after draining.
func (e *Engine) ListItems(ctx context.Context, req ListRequest) (*Listing, error) {
	if req.ClientName == "" {
		req.ClientName = e.cfg.DefaultClient
	}
	if !types.IsClientName(string(req.ClientName)) {
		return nil, errors.NewValidationError("clientName", "unknown client: "+string(req.ClientName))
	}
	if !types.IsSupportedMethod(req.Method) {
		return nil, errors.NewValidationError("method", "unsupported method: "+req.Method)
	}

	cwd, err := e.buffers.WorkingDirectory(ctx, req.WinID)
	if err != nil {
		return nil, errors.WrapWithContext("working directory", err)
	}
	reqCtx := source.RequestContext{BufNr: req.BufNr, WinID: req.WinID, Cwd: cwd}

	out := make(chan []*types.Item)
	listing := &Listing{Batches: out}
	go func() {
		if err := e.list(ctx, req, reqCtx, out); err != nil {
			if errors.IsNoClientsError(err) || errors.IsUnsupportedError(err) {
				common.SourceLogger.Info("listing %s: %v", req.Method, err)
			} else {
				common.SourceLogger.Error("listing %s failed: %v", req.Method, err)
			}
			listing.err = err
		}
		close(out)
	}()
	return listing, nil
}

func (e *Engine) list(ctx context.Context, req ListRequest, reqCtx source.RequestContext, out chan<- []*types.Item) error {
	emit := func(items []*types.Item) {
		if len(items) == 0 {
			return
		}
		select {
		case out <- items:
		case <-ctx.Done():
		}
	}

	switch req.Method {
	case types.MethodCallHierarchyIncomingCalls, types.MethodCallHierarchyOutgoingCalls,
		types.MethodTypeHierarchySupertypes, types.MethodTypeHierarchySubtypes:
		return e.listHierarchy(ctx, req, reqCtx, emit)
	}

	paramsFor, err := e.paramsFor(req, reqCtx)
	if err != nil {
		return err
	}
	results, err := e.dispatcher.Dispatch(ctx, req.ClientName, req.BufNr, req.Method, paramsFor)
	if err != nil {
		return err
	}

	for _, result := range results {
		emit(e.normalize(result, req.Method, reqCtx))
	}
	return nil
}

// paramsFor maps a method to its per-client parameter builder.
func (e *Engine) paramsFor(req ListRequest, reqCtx source.RequestContext) (dispatch.ParamsFunc, error) {
	switch req.Method {
	case types.MethodTextDocumentDeclaration, types.MethodTextDocumentDefinition,
		types.MethodTextDocumentTypeDefinition, types.MethodTextDocumentImplementation,
		types.MethodTextDocumentPrepareCallHierarchy, types.MethodTextDocumentPrepareTypeHierarchy:
		return func(ctx context.Context, client types.Client) (interface{}, error) {
			return e.params.PositionParams(ctx, reqCtx.BufNr, reqCtx.WinID, client.Encoding())
		}, nil

	case types.MethodTextDocumentReferences:
		return func(ctx context.Context, client types.Client) (interface{}, error) {
			return e.params.ReferencesParams(ctx, reqCtx.BufNr, reqCtx.WinID, client.Encoding(), e.cfg.IncludeDeclaration)
		}, nil

	case types.MethodTextDocumentDocumentSymbol:
		return func(ctx context.Context, client types.Client) (interface{}, error) {
			textDocument, err := e.params.TextDocumentIdentifier(ctx, reqCtx.BufNr)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"textDocument": textDocument}, nil
		}, nil

	case types.MethodWorkspaceSymbol:
		return dispatch.StaticParams(map[string]string{"query": req.Query}), nil

	case types.MethodTextDocumentCodeAction:
		return func(ctx context.Context, client types.Client) (interface{}, error) {
			return e.params.CodeActionParams(ctx, reqCtx.BufNr, reqCtx.WinID, client)
		}, nil

	default:
		return nil, errors.NewValidationError("method", "not a listing method: "+req.Method)
	}
}

func (e *Engine) normalize(result dispatch.Result, method string, reqCtx source.RequestContext) []*types.Item {
	switch method {
	case types.MethodTextDocumentDeclaration, types.MethodTextDocumentDefinition,
		types.MethodTextDocumentTypeDefinition, types.MethodTextDocumentImplementation,
		types.MethodTextDocumentReferences:
		return source.Locations(result.Raw, result.Client, method, reqCtx)
	case types.MethodTextDocumentDocumentSymbol:
		return source.DocumentSymbols(result.Raw, result.Client, reqCtx)
	case types.MethodWorkspaceSymbol:
		return source.WorkspaceSymbols(result.Raw, result.Client, reqCtx)
	case types.MethodTextDocumentCodeAction:
		return source.CodeActions(result.Raw, result.Client, method, reqCtx)
	default:
		return nil
	}
}

// listHierarchy prepares hierarchy roots per client and hands them to
// the tree builder.
func (e *Engine) listHierarchy(ctx context.Context, req ListRequest, reqCtx source.RequestContext, emit tree.EmitFunc) error {
	prepareMethod := types.MethodTextDocumentPrepareCallHierarchy
	callFamily := true
	if req.Method == types.MethodTypeHierarchySupertypes || req.Method == types.MethodTypeHierarchySubtypes {
		prepareMethod = types.MethodTextDocumentPrepareTypeHierarchy
		callFamily = false
	}

	paramsFor := func(ctx context.Context, client types.Client) (interface{}, error) {
		return e.params.PositionParams(ctx, reqCtx.BufNr, reqCtx.WinID, client.Encoding())
	}
	results, err := e.dispatcher.Dispatch(ctx, req.ClientName, req.BufNr, prepareMethod, paramsFor)
	if err != nil {
		return err
	}

	builder := tree.NewBuilder(e.childSearcher(req.Method, reqCtx.Cwd), e.cfg.AutoExpandSingle)
	for _, result := range results {
		var roots []*types.Item
		if callFamily {
			roots = source.PrepareCallHierarchy(result.Raw, result.Client, req.Method, reqCtx)
		} else {
			roots = source.PrepareTypeHierarchy(result.Raw, result.Client, req.Method, reqCtx)
		}
		if err := builder.Roots(ctx, roots, emit); err != nil {
			common.SourceLogger.Warn("hierarchy roots failed: %v", err)
		}
	}
	return nil
}

// childSearcher fetches one node's children from the client that
// produced the node.
func (e *Engine) childSearcher(method, cwd string) tree.ChildSearcher {
	return func(ctx context.Context, parent *types.Item) ([]*types.Item, error) {
		itemCtx := parent.Action.Context
		params := map[string]interface{}{"item": json.RawMessage(parent.Data)}
		raw, err := e.dispatcher.DispatchSingle(ctx, itemCtx.Client, itemCtx.BufNr, method, params)
		if err != nil {
			return nil, err
		}
		switch method {
		case types.MethodCallHierarchyIncomingCalls, types.MethodCallHierarchyOutgoingCalls:
			return source.CallHierarchyCalls(raw, parent, method, cwd), nil
		case types.MethodTypeHierarchySupertypes, types.MethodTypeHierarchySubtypes:
			return source.TypeHierarchyChildren(raw, parent, method), nil
		default:
			return nil, errors.NewValidationError("method", "not a hierarchy method: "+method)
		}
	}
}

// Expand emits the cached children of an expandable item, probing each
// child for its own children. Only the expanded node is mutated.
func (e *Engine) Expand(ctx context.Context, item *types.Item, winID int) ([]*types.Item, error) {
	if item.IsTree == nil || !*item.IsTree {
		return nil, nil
	}

	method := item.Action.Context.Method
	switch method {
	case types.MethodCallHierarchyIncomingCalls, types.MethodCallHierarchyOutgoingCalls,
		types.MethodTypeHierarchySupertypes, types.MethodTypeHierarchySubtypes:
		cwd, err := e.buffers.WorkingDirectory(ctx, winID)
		if err != nil {
			return nil, errors.WrapWithContext("working directory", err)
		}
		builder := tree.NewBuilder(e.childSearcher(method, cwd), e.cfg.AutoExpandSingle)
		var children []*types.Item
		err = builder.Expand(ctx, item, func(batch []*types.Item) {
			children = append(children, batch...)
		})
		return children, err
	default:
		// Document symbol children are searched eagerly at listing time.
		item.IsExpanded = true
		for _, child := range item.Children {
			child.Level = item.Level + 1
		}
		return item.Children, nil
	}
}

// ListDiagnostics gathers, sorts and itemizes stored diagnostics.
func (e *Engine) ListDiagnostics(ctx context.Context, req DiagnosticsRequest) ([]*types.Item, error) {
	if req.ClientName == "" {
		req.ClientName = e.cfg.DefaultClient
	}
	buffers := req.Buffers
	for i, bufNr := range buffers {
		if bufNr == 0 {
			buffers[i] = req.BufNr
		}
	}

	diags, err := e.aggregator.Gather(ctx, req.ClientName, buffers)
	if err != nil {
		return nil, err
	}
	source.SortDiagnostics(diags)
	return source.DiagnosticItems(diags, req.ClientName, req.BufNr), nil
}

// ResolveAction resolves a navigation item to its final cursor target.
func (e *Engine) ResolveAction(ctx context.Context, item *types.Item) (*types.ResolvedAction, error) {
	return e.executor.EnsureAction(ctx, item)
}

// ApplyCodeAction resolves and applies a code action item.
func (e *Engine) ApplyCodeAction(ctx context.Context, item *types.Item) error {
	return e.executor.Apply(ctx, item)
}

// ApplyEdit applies a raw workspace edit with the client's encoding.
func (e *Engine) ApplyEdit(ctx context.Context, edit json.RawMessage, client types.Client) error {
	return e.executor.ApplyWorkspaceEdit(ctx, edit, client)
}
