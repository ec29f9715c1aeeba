package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.lsp.dev/jsonrpc2"

	"lsp-finder/src/config"
	"lsp-finder/src/editor"
	"lsp-finder/src/host"
	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
)

// Gateway method names. The plugin calls down with finder/* and the
// gateway calls up with host/* on the same connection.
const (
	MethodListItems   = "finder/listItems"
	MethodDiagnostics = "finder/diagnostics"
	MethodExpand      = "finder/expand"
	MethodResolve     = "finder/resolve"
	MethodApply       = "finder/apply"
	MethodApplyEdit   = "finder/applyEdit"
	MethodRelease     = "finder/release"

	// NotifyItems streams one batch of a running listing.
	NotifyItems = "finder/items"
)

// Gateway serves the engine over a bidirectional JSON-RPC connection to
// the editor plugin. Items cross the wire without their server-side
// state (cached children, resolve tags), so every emitted item is kept
// in a per-listing session; the plugin refers back to an item by its
// listing token and emit index.
type Gateway struct {
	cfg    *config.Config
	conn   jsonrpc2.Conn
	bridge *host.Conn
	engine *Engine

	mu        sync.Mutex
	nextToken int
	sessions  map[string][]*types.Item
}

// NewGateway wires a gateway over the stream. The buffer service is
// created over the same connection.
func NewGateway(cfg *config.Config, rwc io.ReadWriteCloser) *Gateway {
	stream := jsonrpc2.NewStream(rwc)
	conn := jsonrpc2.NewConn(stream)
	bridge := host.NewConn(conn)
	buffers := editor.NewRemote(bridge)
	return &Gateway{
		cfg:      cfg,
		conn:     conn,
		bridge:   bridge,
		engine:   NewEngine(cfg, bridge, buffers),
		sessions: make(map[string][]*types.Item),
	}
}

// Serve runs the connection until it closes or ctx is cancelled.
func (g *Gateway) Serve(ctx context.Context) error {
	g.conn.Go(ctx, g.serveHandler())
	select {
	case <-ctx.Done():
		g.conn.Close()
		<-g.conn.Done()
		return ctx.Err()
	case <-g.conn.Done():
		return g.conn.Err()
	}
}

// serveHandler wires the request routing for one connection. finder/*
// requests run off the read loop: their handlers call back over the
// same connection (host/* requests, host/callback notifications), and
// those replies can only be read while the loop is free. host/callback
// itself stays on the read loop, in front of the async queue, because a
// pending finder/* request may be the one waiting for it.
func (g *Gateway) serveHandler() jsonrpc2.Handler {
	async := jsonrpc2.AsyncHandler(g.handle)
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if req.Method() == host.MethodCallback {
			g.bridge.Dispatch(req.Params())
			return reply(ctx, nil, nil)
		}
		return async(ctx, reply, req)
	}
}

func (g *Gateway) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case host.MethodCallback:
		g.bridge.Dispatch(req.Params())
		return reply(ctx, nil, nil)
	case MethodListItems:
		return g.handleListItems(ctx, reply, req.Params())
	case MethodDiagnostics:
		return g.handleDiagnostics(ctx, reply, req.Params())
	case MethodExpand:
		return g.handleExpand(ctx, reply, req.Params())
	case MethodResolve:
		return g.handleResolve(ctx, reply, req.Params())
	case MethodApply:
		return g.handleApply(ctx, reply, req.Params())
	case MethodApplyEdit:
		return g.handleApplyEdit(ctx, reply, req.Params())
	case MethodRelease:
		g.handleRelease(req.Params())
		// Replying to a notification is a no-op on the wire, but the
		// async queue only advances once the reply fires.
		return reply(ctx, nil, nil)
	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

type itemsNotification struct {
	Token  string        `json:"token"`
	Offset int           `json:"offset"`
	Items  []*types.Item `json:"items"`
}

// Listing statuses the plugin shows to the user. They mirror the
// engine's terminal errors: a listing with zero items still needs to
// say whether no server was attached, the method was declined
// everywhere, or every client failed.
const (
	StatusOK          = "ok"
	StatusNoClients   = "noClients"
	StatusUnsupported = "unsupported"
	StatusFailed      = "failed"
)

type listItemsResult struct {
	Token   string `json:"token"`
	Total   int    `json:"total"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (g *Gateway) newSession() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextToken++
	return fmt.Sprintf("listing-%d", g.nextToken)
}

// record appends items to the session and returns the offset of the
// first appended item.
func (g *Gateway) record(token string, items []*types.Item) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	offset := len(g.sessions[token])
	g.sessions[token] = append(g.sessions[token], items...)
	return offset
}

func (g *Gateway) lookup(token string, index int) (*types.Item, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	items := g.sessions[token]
	if index < 0 || index >= len(items) {
		return nil, false
	}
	return items[index], true
}

func (g *Gateway) handleListItems(ctx context.Context, reply jsonrpc2.Replier, params json.RawMessage) error {
	var req ListRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return reply(ctx, nil, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err))
	}

	listing, err := g.engine.ListItems(ctx, req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	token := g.newSession()
	total := 0
	for batch := range listing.Batches {
		offset := g.record(token, batch)
		total += len(batch)
		if err := g.conn.Notify(ctx, NotifyItems, itemsNotification{Token: token, Offset: offset, Items: batch}); err != nil {
			common.GatewayLogger.Warn("dropping item batch: %v", err)
		}
	}

	result := listItemsResult{Token: token, Total: total, Status: StatusOK}
	if err := listing.Err(); err != nil {
		result.Message = err.Error()
		switch {
		case errors.IsNoClientsError(err):
			result.Status = StatusNoClients
		case errors.IsUnsupportedError(err):
			result.Status = StatusUnsupported
		default:
			result.Status = StatusFailed
		}
	}
	return reply(ctx, result, nil)
}

func (g *Gateway) handleDiagnostics(ctx context.Context, reply jsonrpc2.Replier, params json.RawMessage) error {
	var req DiagnosticsRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return reply(ctx, nil, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err))
	}

	items, err := g.engine.ListDiagnostics(ctx, req)
	if err != nil {
		return reply(ctx, nil, err)
	}
	token := g.newSession()
	g.record(token, items)
	return reply(ctx, itemsNotification{Token: token, Offset: 0, Items: items}, nil)
}

type itemRef struct {
	Token string `json:"token"`
	Index int    `json:"index"`
	WinID int    `json:"winId,omitempty"`
}

func (g *Gateway) itemFor(params json.RawMessage) (*types.Item, itemRef, error) {
	var ref itemRef
	if err := json.Unmarshal(params, &ref); err != nil {
		return nil, ref, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err)
	}
	item, ok := g.lookup(ref.Token, ref.Index)
	if !ok {
		return nil, ref, fmt.Errorf("%w: no item %d in listing %s", jsonrpc2.ErrInvalidParams, ref.Index, ref.Token)
	}
	return item, ref, nil
}

func (g *Gateway) handleExpand(ctx context.Context, reply jsonrpc2.Replier, params json.RawMessage) error {
	item, ref, err := g.itemFor(params)
	if err != nil {
		return reply(ctx, nil, err)
	}

	children, err := g.engine.Expand(ctx, item, ref.WinID)
	if err != nil {
		return reply(ctx, nil, err)
	}
	offset := g.record(ref.Token, children)
	return reply(ctx, itemsNotification{Token: ref.Token, Offset: offset, Items: children}, nil)
}

func (g *Gateway) handleResolve(ctx context.Context, reply jsonrpc2.Replier, params json.RawMessage) error {
	item, _, err := g.itemFor(params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	resolved, err := g.engine.ResolveAction(ctx, item)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, resolved, nil)
}

func (g *Gateway) handleApply(ctx context.Context, reply jsonrpc2.Replier, params json.RawMessage) error {
	item, _, err := g.itemFor(params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	if err := g.engine.ApplyCodeAction(ctx, item); err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, true, nil)
}

type applyEditParams struct {
	Edit   json.RawMessage `json:"edit"`
	Client types.Client    `json:"client"`
}

func (g *Gateway) handleApplyEdit(ctx context.Context, reply jsonrpc2.Replier, params json.RawMessage) error {
	var p applyEditParams
	if err := json.Unmarshal(params, &p); err != nil {
		return reply(ctx, nil, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err))
	}
	if err := g.engine.ApplyEdit(ctx, p.Edit, p.Client); err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, true, nil)
}

func (g *Gateway) handleRelease(params json.RawMessage) {
	var ref itemRef
	if err := json.Unmarshal(params, &ref); err != nil {
		return
	}
	g.mu.Lock()
	delete(g.sessions, ref.Token)
	g.mu.Unlock()
}
