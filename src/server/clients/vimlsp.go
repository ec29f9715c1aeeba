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

// vimLSPAdapter drives vim-lsp. Its send_request API has no return
// value; the response arrives through an on_notification callback, so
// each request registers a one-shot lambda on the host bridge and waits
// for it under a bounded deadline.
type vimLSPAdapter struct {
	host    host.Host
	timeout time.Duration
}

func newVimLSPAdapter(h host.Host, timeout time.Duration) *vimLSPAdapter {
	if timeout <= 0 {
		timeout = common.DefaultRequestTimeout
	}
	return &vimLSPAdapter{host: h, timeout: timeout}
}

func (a *vimLSPAdapter) Name() types.ClientName { return types.ClientVimLSP }

func (a *vimLSPAdapter) ListClients(ctx context.Context, bufNr int) ([]types.Client, error) {
	raw, err := a.host.Call(ctx, "lsp#get_allowed_servers", bufNr)
	if err != nil {
		// vim-lsp not installed
		return nil, nil
	}
	var servers []string
	if err := json.Unmarshal(raw, &servers); err != nil {
		return nil, nil
	}

	out := make([]types.Client, 0, len(servers))
	for _, server := range servers {
		out = append(out, types.Client{
			Name:           types.ClientVimLSP,
			ID:             server,
			OffsetEncoding: types.OffsetEncodingUTF16,
		})
	}
	return out, nil
}

// sendRequestExpr forwards the server response into the registered
// lambda via the plugin's notify helper.
const sendRequestExpr = `lsp#send_request(l:server, extend(l:request, ` +
	`{'on_notification': {data -> lspfinder#notify(l:id, data)}}))`

type vimLSPResponse struct {
	Response struct {
		Result json.RawMessage `json:"result"`
	} `json:"response"`
}

func (a *vimLSPAdapter) Request(ctx context.Context, client types.Client, method string, params interface{}, bufNr int) (json.RawMessage, error) {
	ctx, cancel := common.WithTimeout(ctx, a.timeout)
	defer cancel()

	data := make(chan json.RawMessage, 1)
	id := a.host.Register(func(payload json.RawMessage) {
		select {
		case data <- payload:
		default:
		}
	})
	defer a.host.Unregister(id)

	env := map[string]interface{}{
		"server": client.ID,
		"request": map[string]interface{}{
			"method": method,
			"params": params,
		},
		"id": id,
	}
	if _, err := a.host.Eval(ctx, sendRequestExpr, env); err != nil {
		// send_request fails synchronously only when the server does
		// not accept the method.
		return nil, errors.NewUnsupportedError(method, client.ID)
	}

	select {
	case payload := <-data:
		var resp vimLSPResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			// Malformed notification payload, treat as no data.
			return nil, nil
		}
		return resp.Response.Result, nil
	case <-ctx.Done():
		return nil, errors.NewTimeoutError(method, client.ID, a.timeout, ctx.Err())
	}
}

func (a *vimLSPAdapter) Supports(ctx context.Context, client types.Client, method string) (bool, bool) {
	// vim-lsp only reveals capabilities per server feature flags, not
	// per method name.
	return false, false
}

var _ Adapter = (*vimLSPAdapter)(nil)
