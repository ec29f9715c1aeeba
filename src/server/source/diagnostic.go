package source

import (
	"context"
	"sort"
	"strings"

	"go.lsp.dev/protocol"
	"golang.org/x/sync/errgroup"

	"lsp-finder/src/editor"
	"lsp-finder/src/host"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/utils"
	"lsp-finder/src/utils/jsonutil"
)

// Aggregator pulls diagnostics out of the three client ecosystems'
// stores. Diagnostics are pushed by servers, so there is no request to
// dispatch; each backend exposes its own store shape and the aggregator
// normalizes all of them to types.Diagnostic.
type Aggregator struct {
	host    host.Host
	buffers editor.BufferService
}

func NewAggregator(h host.Host, buffers editor.BufferService) *Aggregator {
	return &Aggregator{host: h, buffers: buffers}
}

// Gather returns the stored diagnostics for the named client. A nil
// bufNrs means the whole workspace.
func (a *Aggregator) Gather(ctx context.Context, clientName types.ClientName, bufNrs []int) ([]types.Diagnostic, error) {
	switch clientName {
	case types.ClientNvimLSP:
		return a.gatherNvim(ctx, bufNrs)
	case types.ClientCoc:
		return a.gatherCoc(ctx, bufNrs)
	case types.ClientVimLSP:
		return a.gatherVimLSP(ctx, bufNrs)
	default:
		return nil, errors.NewValidationError("clientName", "unknown client: "+string(clientName))
	}
}

// nvimDiagnostic is the vim.diagnostic.get element shape: flat editor
// coordinates instead of a protocol range.
type nvimDiagnostic struct {
	BufNr    int                         `json:"bufnr"`
	Lnum     uint32                      `json:"lnum"`
	Col      uint32                      `json:"col"`
	EndLnum  uint32                      `json:"end_lnum"`
	EndCol   uint32                      `json:"end_col"`
	Severity protocol.DiagnosticSeverity `json:"severity,omitempty"`
	Message  string                      `json:"message"`
	Source   string                      `json:"source,omitempty"`
	Code     interface{}                 `json:"code,omitempty"`
}

const luaDiagnosticGet = `
local bufnr = ...
return vim.diagnostic.get(bufnr)
`

func (a *Aggregator) gatherNvim(ctx context.Context, bufNrs []int) ([]types.Diagnostic, error) {
	var arg interface{}
	if len(bufNrs) == 1 {
		arg = bufNrs[0]
	}
	raw, err := a.host.Lua(ctx, luaDiagnosticGet, arg)
	if err != nil {
		return nil, errors.WrapWithContext("nvim-lsp diagnostics", err)
	}

	stored, ok := jsonutil.Decode[[]nvimDiagnostic](raw)
	if !ok {
		return nil, nil
	}

	out := make([]types.Diagnostic, 0, len(stored))
	for _, diag := range stored {
		if len(bufNrs) > 1 && !containsInt(bufNrs, diag.BufNr) {
			continue
		}
		out = append(out, types.Diagnostic{
			BufNr: diag.BufNr,
			Range: protocol.Range{
				Start: protocol.Position{Line: diag.Lnum, Character: diag.Col},
				End:   protocol.Position{Line: diag.EndLnum, Character: diag.EndCol},
			},
			Severity: diag.Severity,
			Message:  diag.Message,
			Source:   diag.Source,
			Code:     diag.Code,
		})
	}
	return out, nil
}

// cocSeverities maps coc.nvim's severity names onto protocol values.
var cocSeverities = map[string]protocol.DiagnosticSeverity{
	"Error":   protocol.DiagnosticSeverityError,
	"Warning": protocol.DiagnosticSeverityWarning,
	"Info":    protocol.DiagnosticSeverityInformation,
	"Hint":    protocol.DiagnosticSeverityHint,
}

type cocDiagnostic struct {
	File     string `json:"file"`
	Location struct {
		Range protocol.Range `json:"range"`
	} `json:"location"`
	Severity string      `json:"severity"`
	Message  string      `json:"message"`
	Source   string      `json:"source,omitempty"`
	Code     interface{} `json:"code,omitempty"`
}

func (a *Aggregator) gatherCoc(ctx context.Context, bufNrs []int) ([]types.Diagnostic, error) {
	raw, err := a.host.Call(ctx, "CocAction", "diagnosticList")
	if err != nil {
		return nil, errors.WrapWithContext("coc.nvim diagnostics", err)
	}

	stored, ok := jsonutil.Decode[[]cocDiagnostic](raw)
	if !ok {
		return nil, nil
	}

	// One bufnr() lookup per distinct file. A file with no buffer maps
	// to -1 and only survives an unfiltered gather.
	toBufNr := make(map[string]int)
	for _, diag := range stored {
		if _, seen := toBufNr[diag.File]; seen {
			continue
		}
		bufRaw, err := a.host.Call(ctx, "bufnr", diag.File)
		if err != nil {
			return nil, errors.WrapWithContext("coc.nvim bufnr", err)
		}
		bufNr, ok := jsonutil.Decode[int](bufRaw)
		if !ok {
			bufNr = -1
		}
		toBufNr[diag.File] = bufNr
	}

	out := make([]types.Diagnostic, 0, len(stored))
	for _, diag := range stored {
		bufNr := toBufNr[diag.File]
		if bufNrs != nil && !containsInt(bufNrs, bufNr) {
			continue
		}
		out = append(out, types.Diagnostic{
			BufNr:    bufNr,
			Path:     diag.File,
			Range:    diag.Location.Range,
			Severity: cocSeverities[diag.Severity],
			Message:  diag.Message,
			Source:   diag.Source,
			Code:     diag.Code,
		})
	}
	return out, nil
}

// vimLSPDiagnostic is one server's publishDiagnostics notification as
// vim-lsp stores it.
type vimLSPDiagnostic struct {
	Params struct {
		URI         string                `json:"uri"`
		Diagnostics []protocol.Diagnostic `json:"diagnostics"`
	} `json:"params"`
}

func (a *Aggregator) gatherVimLSP(ctx context.Context, bufNrs []int) ([]types.Diagnostic, error) {
	if bufNrs == nil {
		return a.gatherVimLSPAll(ctx)
	}

	results := make([][]types.Diagnostic, len(bufNrs))
	g, gctx := errgroup.WithContext(ctx)
	for i, bufNr := range bufNrs {
		i, bufNr := i, bufNr
		g.Go(func() error {
			diags, err := a.gatherVimLSPBuffer(gctx, bufNr)
			if err != nil {
				return err
			}
			results[i] = diags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.Diagnostic
	for _, diags := range results {
		out = append(out, diags...)
	}
	return out, nil
}

func (a *Aggregator) gatherVimLSPBuffer(ctx context.Context, bufNr int) ([]types.Diagnostic, error) {
	path, err := a.buffers.PathForBuffer(ctx, bufNr)
	if err != nil {
		return nil, errors.WrapWithContext("vim-lsp buffer path", err)
	}
	fileURI := utils.FilePathToURI(path)

	raw, err := a.host.Call(ctx,
		"lsp#internal#diagnostics#state#_get_all_diagnostics_grouped_by_server_for_uri", fileURI)
	if err != nil {
		return nil, errors.WrapWithContext("vim-lsp diagnostics", err)
	}

	byServer, ok := jsonutil.Decode[map[string]vimLSPDiagnostic](raw)
	if !ok {
		return nil, nil
	}

	var out []types.Diagnostic
	for _, stored := range byServer {
		out = append(out, normalizeVimLSP(stored, bufNr, path)...)
	}
	return out, nil
}

func (a *Aggregator) gatherVimLSPAll(ctx context.Context) ([]types.Diagnostic, error) {
	raw, err := a.host.Call(ctx,
		"lsp#internal#diagnostics#state#_get_all_diagnostics_grouped_by_uri_and_server")
	if err != nil {
		return nil, errors.WrapWithContext("vim-lsp diagnostics", err)
	}

	byURI, ok := jsonutil.Decode[map[string]map[string]vimLSPDiagnostic](raw)
	if !ok {
		return nil, nil
	}

	var out []types.Diagnostic
	for normalizedURI, byServer := range byURI {
		path := utils.URIToFilePath(normalizedURI)
		bufNr, err := a.buffers.BufferForPath(ctx, path)
		if err != nil {
			return nil, errors.WrapWithContext("vim-lsp buffer lookup", err)
		}
		for _, stored := range byServer {
			out = append(out, normalizeVimLSP(stored, bufNr, path)...)
		}
	}
	return out, nil
}

func normalizeVimLSP(stored vimLSPDiagnostic, bufNr int, path string) []types.Diagnostic {
	out := make([]types.Diagnostic, 0, len(stored.Params.Diagnostics))
	for _, diag := range stored.Params.Diagnostics {
		out = append(out, types.Diagnostic{
			BufNr:    bufNr,
			Path:     path,
			Range:    diag.Range,
			Severity: diag.Severity,
			Message:  diag.Message,
			Source:   diag.Source,
			Code:     diag.Code,
		})
	}
	return out
}

// SortDiagnostics orders diagnostics buffer first, then severity with a
// missing severity ranked as Error, then position. The sort is stable
// so equal diagnostics keep their arrival order.
func SortDiagnostics(diags []types.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.BufNr != b.BufNr {
			return a.BufNr < b.BufNr
		}
		as, bs := a.Severity, b.Severity
		if as == 0 {
			as = protocol.DiagnosticSeverityError
		}
		if bs == 0 {
			bs = protocol.DiagnosticSeverityError
		}
		if as != bs {
			return as < bs
		}
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		return a.Range.Start.Character < b.Range.Start.Character
	})
}

// DiagnosticItems converts sorted diagnostics into finder items. The
// word is the first message line; multi-line detail stays in Data.
func DiagnosticItems(diags []types.Diagnostic, clientName types.ClientName, bufNr int) []*types.Item {
	encoding := types.OffsetEncodingUTF16
	if clientName == types.ClientNvimLSP {
		encoding = types.OffsetEncodingUTF8
	}
	itemCtx := types.ItemContext{
		Client: types.Client{Name: clientName, OffsetEncoding: encoding},
		BufNr:  bufNr,
	}

	items := make([]*types.Item, 0, len(diags))
	for i := range diags {
		diag := diags[i]
		word, _, _ := strings.Cut(diag.Message, "\n")
		r := diag.Range
		items = append(items, &types.Item{
			Word: word,
			Action: &types.Action{
				BufNr:   diag.BufNr,
				Path:    diag.Path,
				Range:   &r,
				Context: itemCtx,
			},
			Data: marshalData(diag),
		})
	}
	return items
}

// ProperDiagnostics returns the buffer's diagnostics stripped back to
// pure protocol fields. Clients decorate their stores with their own
// extras; servers reject those in a codeAction context.
func (a *Aggregator) ProperDiagnostics(ctx context.Context, clientName types.ClientName, bufNr int) ([]protocol.Diagnostic, error) {
	diags, err := a.Gather(ctx, clientName, []int{bufNr})
	if err != nil {
		return nil, err
	}
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, diag := range diags {
		out = append(out, protocol.Diagnostic{
			Range:    diag.Range,
			Severity: diag.Severity,
			Code:     diag.Code,
			Source:   diag.Source,
			Message:  diag.Message,
		})
	}
	return out, nil
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
