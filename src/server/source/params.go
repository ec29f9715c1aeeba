package source

import (
	"context"
	"math"

	"go.lsp.dev/protocol"

	"lsp-finder/src/editor"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/offset"
	"lsp-finder/src/utils"
)

// ParamsBuilder assembles request parameters from the live editor
// state. Positions are converted from editor byte offsets into the
// target client's negotiated encoding before they hit the wire.
type ParamsBuilder struct {
	buffers    editor.BufferService
	aggregator *Aggregator
}

func NewParamsBuilder(buffers editor.BufferService, aggregator *Aggregator) *ParamsBuilder {
	return &ParamsBuilder{buffers: buffers, aggregator: aggregator}
}

// TextDocumentPositionParams is the common cursor-bound request shape.
type TextDocumentPositionParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Position     protocol.Position               `json:"position"`
}

// CodeActionParams carries the selection span plus the stored
// diagnostics overlapping it.
type CodeActionParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
	Context      protocol.CodeActionContext      `json:"context"`
}

// ReferenceParams extends the position shape with the include-declaration
// switch of textDocument/references.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context protocol.ReferenceContext `json:"context"`
}

func (b *ParamsBuilder) TextDocumentIdentifier(ctx context.Context, bufNr int) (protocol.TextDocumentIdentifier, error) {
	path, err := b.buffers.PathForBuffer(ctx, bufNr)
	if err != nil {
		return protocol.TextDocumentIdentifier{}, errors.WrapWithContext("buffer path", err)
	}
	return protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(utils.FilePathToURI(path))}, nil
}

// PositionParams builds the cursor-position params for the window,
// encoded for the client.
func (b *ParamsBuilder) PositionParams(ctx context.Context, bufNr, winID int, enc types.OffsetEncoding) (*TextDocumentPositionParams, error) {
	textDocument, err := b.TextDocumentIdentifier(ctx, bufNr)
	if err != nil {
		return nil, err
	}

	cursorBufNr, pos, err := b.buffers.Cursor(ctx, winID)
	if err != nil {
		return nil, errors.WrapWithContext("cursor", err)
	}
	if cursorBufNr != bufNr {
		return nil, errors.NewValidationError("winId", "window does not show the request buffer")
	}

	encoded, err := offset.EncodePosition(ctx, b.buffers, bufNr, pos, enc)
	if err != nil {
		return nil, err
	}

	return &TextDocumentPositionParams{TextDocument: textDocument, Position: encoded}, nil
}

// ReferencesParams builds textDocument/references params.
func (b *ParamsBuilder) ReferencesParams(ctx context.Context, bufNr, winID int, enc types.OffsetEncoding, includeDeclaration bool) (*ReferenceParams, error) {
	position, err := b.PositionParams(ctx, bufNr, winID, enc)
	if err != nil {
		return nil, err
	}
	return &ReferenceParams{
		TextDocumentPositionParams: *position,
		Context:                    protocol.ReferenceContext{IncludeDeclaration: includeDeclaration},
	}, nil
}

// CodeActionParams builds textDocument/codeAction params from the
// active selection and the stored diagnostics of the buffer.
func (b *ParamsBuilder) CodeActionParams(ctx context.Context, bufNr, winID int, client types.Client) (*CodeActionParams, error) {
	textDocument, err := b.TextDocumentIdentifier(ctx, bufNr)
	if err != nil {
		return nil, err
	}

	selection, err := b.selectionRange(ctx, bufNr, winID, client.Encoding())
	if err != nil {
		return nil, err
	}

	diagnostics, err := b.aggregator.ProperDiagnostics(ctx, client.Name, bufNr)
	if err != nil {
		return nil, err
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	return &CodeActionParams{
		TextDocument: textDocument,
		Range:        selection,
		Context:      protocol.CodeActionContext{Diagnostics: diagnostics},
	}, nil
}

// selectionRange returns the visual span, cursor-collapsed in normal
// mode. A line-wise selection spans whole lines regardless of column.
func (b *ParamsBuilder) selectionRange(ctx context.Context, bufNr, winID int, enc types.OffsetEncoding) (protocol.Range, error) {
	start, end, linewise, err := b.buffers.Selection(ctx, winID)
	if err != nil {
		return protocol.Range{}, errors.WrapWithContext("selection", err)
	}

	r := types.NormalizeRange(protocol.Range{Start: start, End: end})

	if linewise {
		r.Start.Character = 0
		r.End.Character = math.MaxUint32
		return r, nil
	}

	encodedStart, err := offset.EncodePosition(ctx, b.buffers, bufNr, r.Start, enc)
	if err != nil {
		return protocol.Range{}, err
	}
	encodedEnd, err := offset.EncodePosition(ctx, b.buffers, bufNr, r.End, enc)
	if err != nil {
		return protocol.Range{}, err
	}
	return protocol.Range{Start: encodedStart, End: encodedEnd}, nil
}
