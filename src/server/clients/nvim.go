package clients

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"lsp-finder/src/host"
	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
)

// nvimAdapter drives Neovim's built-in LSP client through the editor's
// Lua runtime. Each attached client declares its own offset encoding.
type nvimAdapter struct {
	host    host.Host
	timeout time.Duration
}

func newNvimAdapter(h host.Host, timeout time.Duration) *nvimAdapter {
	if timeout <= 0 {
		timeout = common.DefaultRequestTimeout
	}
	return &nvimAdapter{host: h, timeout: timeout}
}

func (a *nvimAdapter) Name() types.ClientName { return types.ClientNvimLSP }

type nvimClientInfo struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	OffsetEncoding string `json:"offset_encoding"`
}

const luaListClients = `
local out = {}
for _, client in ipairs(vim.lsp.get_clients({ bufnr = ... })) do
  table.insert(out, {
    id = client.id,
    name = client.name,
    offset_encoding = client.offset_encoding,
  })
end
return out
`

func (a *nvimAdapter) ListClients(ctx context.Context, bufNr int) ([]types.Client, error) {
	raw, err := a.host.Lua(ctx, luaListClients, bufNr)
	if err != nil {
		return nil, errors.WrapWithContext("nvim-lsp list clients", err)
	}

	var infos []nvimClientInfo
	if err := json.Unmarshal(raw, &infos); err != nil {
		// An empty Lua table serializes as {} rather than []; treat
		// any undecodable shape as no clients.
		return nil, nil
	}

	out := make([]types.Client, 0, len(infos))
	for _, info := range infos {
		enc := types.OffsetEncoding(info.OffsetEncoding)
		if enc == "" {
			enc = types.OffsetEncodingUTF16
		}
		out = append(out, types.Client{
			Name:           types.ClientNvimLSP,
			ID:             strconv.Itoa(info.ID),
			OffsetEncoding: enc,
		})
	}
	return out, nil
}

const luaRequest = `
local client_id, method, params, bufnr = ...
local client = vim.lsp.get_client_by_id(client_id)
if client == nil then
  return nil
end
local response = client.request_sync(method, params, nil, bufnr)
if response == nil or response.err ~= nil then
  return nil
end
return response.result
`

func (a *nvimAdapter) Request(ctx context.Context, client types.Client, method string, params interface{}, bufNr int) (json.RawMessage, error) {
	clientID, err := strconv.Atoi(client.ID)
	if err != nil {
		return nil, errors.NewValidationError("client.id", "not a nvim-lsp client id: "+client.ID)
	}

	ctx, cancel := common.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.host.Lua(ctx, luaRequest, clientID, method, params, bufNr)
	if err != nil {
		if errors.IsTimeoutError(err) {
			return nil, errors.NewTimeoutError(method, client.ID, a.timeout, err)
		}
		return nil, errors.WrapWithContext("nvim-lsp request", err)
	}
	return raw, nil
}

const luaSupports = `
local client_id, method = ...
local client = vim.lsp.get_client_by_id(client_id)
if client == nil then
  return false
end
return client.supports_method(method)
`

func (a *nvimAdapter) Supports(ctx context.Context, client types.Client, method string) (bool, bool) {
	clientID, err := strconv.Atoi(client.ID)
	if err != nil {
		return false, false
	}
	raw, err := a.host.Lua(ctx, luaSupports, clientID, method)
	if err != nil {
		return false, false
	}
	var supported bool
	if err := json.Unmarshal(raw, &supported); err != nil {
		return false, false
	}
	return supported, true
}

var _ Adapter = (*nvimAdapter)(nil)
