// Package kind executes item actions: jumping to a navigation item's
// location and applying a code action. Lazy payloads are resolved here,
// at most once per item, routed back to the client that produced them.
package kind

import (
	"context"
	"encoding/json"
	"strings"

	"go.lsp.dev/protocol"

	"lsp-finder/src/editor"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/offset"
	"lsp-finder/src/server/dispatch"
	"lsp-finder/src/utils/jsonutil"
)

// Executor resolves and performs item actions.
type Executor struct {
	dispatcher *dispatch.Dispatcher
	buffers    editor.BufferService
}

func NewExecutor(dispatcher *dispatch.Dispatcher, buffers editor.BufferService) *Executor {
	return &Executor{dispatcher: dispatcher, buffers: buffers}
}

// EnsureAction resolves a navigation item to a concrete buffer, path and
// 1-indexed cursor position. The result is cached on the item; a second
// call returns the cache, and a failed resolve stays failed.
func (e *Executor) EnsureAction(ctx context.Context, item *types.Item) (*types.ResolvedAction, error) {
	action := item.Action
	if action == nil || (action.BufNr == 0 && action.Path == "") {
		return nil, errors.NewValidationError("item", "item carries no navigation action")
	}

	switch action.State {
	case types.ResolveStateResolved:
		return &types.ResolvedAction{
			BufNr: action.BufNr,
			Path:  action.Path,
			Lnum:  action.Lnum,
			Col:   action.Col,
		}, nil
	case types.ResolveStateFailed:
		return nil, errors.NewResolveError(action.Context.Method, nil)
	case types.ResolveStateResolving:
		return nil, errors.NewValidationError("item", "resolve already in flight")
	}
	action.State = types.ResolveStateResolving

	resolved, err := e.resolveAction(ctx, item)
	if err != nil {
		action.State = types.ResolveStateFailed
		return nil, err
	}
	action.State = types.ResolveStateResolved
	return resolved, nil
}

func (e *Executor) resolveAction(ctx context.Context, item *types.Item) (*types.ResolvedAction, error) {
	action := item.Action

	// A workspace/symbol item may arrive without a range; the owning
	// server fills it in on demand.
	if action.Context.Method == types.MethodWorkspaceSymbol && action.Range == nil {
		if err := e.resolveWorkspaceSymbol(ctx, item); err != nil {
			return nil, err
		}
	}

	if err := e.ensureVirtualBuffer(ctx, action); err != nil {
		return nil, err
	}

	bufNr := action.BufNr
	if bufNr == 0 {
		var err error
		bufNr, err = e.buffers.BufferForPath(ctx, action.Path)
		if err != nil {
			return nil, errors.WrapWithContext("resolve buffer", err)
		}
		action.BufNr = bufNr
	}
	if err := e.buffers.LoadBuffer(ctx, bufNr); err != nil {
		return nil, errors.WrapWithContext("load buffer", err)
	}
	if action.Path == "" {
		path, err := e.buffers.PathForBuffer(ctx, bufNr)
		if err != nil {
			return nil, errors.WrapWithContext("resolve path", err)
		}
		action.Path = path
	}

	pos := protocol.Position{}
	if action.Range != nil {
		pos = action.Range.Start
	}
	decoded, err := offset.DecodePosition(ctx, e.buffers, bufNr, pos, action.Context.Client.Encoding())
	if err != nil {
		return nil, err
	}
	action.Lnum = int(decoded.Line) + 1
	action.Col = int(decoded.Character) + 1

	return &types.ResolvedAction{
		BufNr: action.BufNr,
		Path:  action.Path,
		Lnum:  action.Lnum,
		Col:   action.Col,
	}, nil
}

func (e *Executor) resolveWorkspaceSymbol(ctx context.Context, item *types.Item) error {
	action := item.Action
	raw, err := e.dispatcher.DispatchSingle(ctx, action.Context.Client, action.Context.BufNr,
		types.MethodWorkspaceSymbolResolve, item.Data)
	if err != nil {
		return errors.NewResolveError(types.MethodWorkspaceSymbolResolve, err)
	}

	symbol, ok := jsonutil.Decode[types.WorkspaceSymbol](raw)
	if !ok || symbol.Location.Range == nil {
		return errors.NewResolveError(types.MethodWorkspaceSymbolResolve, nil)
	}
	action.Range = symbol.Location.Range
	return nil
}

// ensureVirtualBuffer materializes deno: virtual documents. The content
// comes from the server itself via deno/virtualTextDocument and is only
// fetched when the buffer is still empty.
func (e *Executor) ensureVirtualBuffer(ctx context.Context, action *types.Action) error {
	if !strings.HasPrefix(action.Path, "deno:") {
		return nil
	}

	bufNr, err := e.buffers.BufferForPath(ctx, action.Path)
	if err != nil {
		return errors.WrapWithContext("virtual buffer", err)
	}
	if err := e.buffers.LoadBuffer(ctx, bufNr); err != nil {
		return errors.WrapWithContext("virtual buffer", err)
	}
	empty, err := e.isEmptyBuffer(ctx, bufNr)
	if err != nil || !empty {
		return err
	}

	params := map[string]interface{}{
		"textDocument": map[string]string{"uri": action.Path},
	}
	raw, err := e.dispatcher.DispatchSingle(ctx, action.Context.Client, action.Context.BufNr,
		types.MethodDenoVirtualTextDocument, params)
	if err != nil {
		return errors.NewResolveError(types.MethodDenoVirtualTextDocument, err)
	}

	content, ok := jsonutil.Decode[string](raw)
	if !ok {
		return nil
	}
	return e.buffers.SetLines(ctx, bufNr, strings.Split(content, "\n"))
}

func (e *Executor) isEmptyBuffer(ctx context.Context, bufNr int) (bool, error) {
	count, err := e.buffers.LineCount(ctx, bufNr)
	if err != nil {
		return false, errors.WrapWithContext("virtual buffer", err)
	}
	if count != 1 {
		return false, nil
	}
	line, err := e.buffers.ReadLine(ctx, bufNr, 0)
	if err != nil {
		return false, errors.WrapWithContext("virtual buffer", err)
	}
	return line == "", nil
}

// EnsureCodeAction resolves a code action's edit when neither the edit
// nor a prior resolve is present. The record is marked resolved even on
// failure so the round-trip happens at most once.
func (e *Executor) EnsureCodeAction(ctx context.Context, item *types.Item) (*types.CodeActionRecord, error) {
	record := item.CodeAction
	if record == nil {
		return nil, errors.NewValidationError("item", "item carries no code action")
	}

	if record.State == types.ResolveStateUnresolved && len(record.Edit) == 0 {
		record.State = types.ResolveStateResolved
		raw, err := e.dispatcher.DispatchSingle(ctx, record.Context.Client, record.Context.BufNr,
			types.MethodCodeActionResolve, item.Data)
		if err != nil {
			record.State = types.ResolveStateFailed
			return nil, errors.NewResolveError(types.MethodCodeActionResolve, err)
		}
		if resolved, ok := jsonutil.Decode[struct {
			Edit json.RawMessage `json:"edit"`
		}](raw); ok {
			record.Edit = resolved.Edit
		}
	}
	return record, nil
}

// Apply executes a code action: its workspace edit, then its command.
func (e *Executor) Apply(ctx context.Context, item *types.Item) error {
	record, err := e.EnsureCodeAction(ctx, item)
	if err != nil {
		return err
	}

	if len(record.Edit) > 0 && string(record.Edit) != "null" {
		if err := e.ApplyWorkspaceEdit(ctx, record.Edit, record.Context.Client); err != nil {
			return err
		}
	}
	if record.Command != nil {
		params := map[string]interface{}{
			"command":   record.Command.Command,
			"arguments": record.Command.Arguments,
		}
		if _, err := e.dispatcher.DispatchSingle(ctx, record.Context.Client, record.Context.BufNr,
			types.MethodWorkspaceExecuteCommand, params); err != nil {
			return err
		}
	}
	return nil
}
