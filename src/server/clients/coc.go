package clients

import (
	"context"
	"encoding/json"
	"time"

	"lsp-finder/src/host"
	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
)

// cocAdapter drives coc.nvim through its exported vim functions. The
// transport reports a single opaque failure for both timeouts and
// unsupported methods; those failures are classified as unsupported,
// which the dispatcher only surfaces when every client agrees.
type cocAdapter struct {
	host    host.Host
	timeout time.Duration
}

func newCocAdapter(h host.Host, timeout time.Duration) *cocAdapter {
	if timeout <= 0 {
		timeout = common.DefaultRequestTimeout
	}
	return &cocAdapter{host: h, timeout: timeout}
}

func (a *cocAdapter) Name() types.ClientName { return types.ClientCoc }

type cocService struct {
	ID          string   `json:"id"`
	State       string   `json:"state"`
	LanguageIDs []string `json:"languageIds"`
}

func (a *cocAdapter) ListClients(ctx context.Context, bufNr int) ([]types.Client, error) {
	filetype, err := a.host.Call(ctx, "getbufvar", bufNr, "&filetype")
	if err != nil {
		return nil, errors.WrapWithContext("coc.nvim filetype", err)
	}
	var ft string
	if err := json.Unmarshal(filetype, &ft); err != nil {
		return nil, nil
	}

	raw, err := a.host.Call(ctx, "CocAction", "services")
	if err != nil {
		// coc.nvim not installed or not started
		return nil, nil
	}
	var services []cocService
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, nil
	}

	out := make([]types.Client, 0, len(services))
	for _, svc := range services {
		if svc.State != "running" || !containsLanguage(svc.LanguageIDs, ft) {
			continue
		}
		out = append(out, types.Client{
			Name:           types.ClientCoc,
			ID:             svc.ID,
			OffsetEncoding: types.OffsetEncodingUTF16,
		})
	}
	return out, nil
}

func containsLanguage(ids []string, ft string) bool {
	for _, id := range ids {
		if id == ft {
			return true
		}
	}
	return false
}

func (a *cocAdapter) Request(ctx context.Context, client types.Client, method string, params interface{}, bufNr int) (json.RawMessage, error) {
	ctx, cancel := common.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.host.Call(ctx, "CocRequest", client.ID, method, params)
	if err != nil {
		if errors.IsTimeoutError(err) {
			return nil, errors.NewTimeoutError(method, client.ID, a.timeout, err)
		}
		// CocRequest throws the same way for a timed-out request and
		// an unknown method; treat it as unsupported.
		return nil, errors.NewUnsupportedError(method, client.ID)
	}
	return raw, nil
}

func (a *cocAdapter) Supports(ctx context.Context, client types.Client, method string) (bool, bool) {
	// coc.nvim offers no capability introspection short of issuing the
	// request itself.
	return false, false
}

var _ Adapter = (*cocAdapter)(nil)
