// Package dispatch fans one logical LSP request out to every attached
// client of a backend, collects the per-client outcomes concurrently and
// classifies the aggregate: results, no client attached, or method
// unsupported by all.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/server/clients"
)

// Result pairs one client's raw answer with its descriptor. Raw may be
// nil when the server answered "no data".
type Result struct {
	Client types.Client
	Raw    json.RawMessage
}

// ParamsFunc builds per-client request parameters. Position parameters
// depend on the client's offset encoding, so they cannot be shared.
type ParamsFunc func(ctx context.Context, client types.Client) (interface{}, error)

// StaticParams adapts encoding-independent parameters to a ParamsFunc.
func StaticParams(params interface{}) ParamsFunc {
	return func(context.Context, types.Client) (interface{}, error) {
		return params, nil
	}
}

// Dispatcher coordinates multi-client fan-out with bounded waits.
type Dispatcher struct {
	registry       *clients.Registry
	overallTimeout time.Duration
}

// NewDispatcher creates a Dispatcher over the registry.
func NewDispatcher(registry *clients.Registry) *Dispatcher {
	return &Dispatcher{
		registry:       registry,
		overallTimeout: common.DefaultOverallTimeout,
	}
}

// WithOverallTimeout bounds a full fan-out, usually from configuration.
// Non-positive keeps the built-in default.
func (d *Dispatcher) WithOverallTimeout(timeout time.Duration) *Dispatcher {
	if timeout > 0 {
		d.overallTimeout = timeout
	}
	return d
}

type outcome struct {
	client types.Client
	raw    json.RawMessage
	err    error
}

// Dispatch sends the method to every attached client of the backend.
// Returns a distinguished NoClientsError when nothing is attached and a
// distinguished UnsupportedError when every client declines the method.
// Individual failures are dropped (and logged) as long as at least one
// client answers; one broken server must not blank out the rest.
func (d *Dispatcher) Dispatch(ctx context.Context, name types.ClientName, bufNr int, method string, paramsFor ParamsFunc) ([]Result, error) {
	if !types.IsSupportedMethod(method) {
		return nil, errors.NewValidationError("method", "unsupported method: "+method)
	}

	attached, err := d.registry.ListClients(ctx, name, bufNr)
	if err != nil {
		return nil, err
	}
	if len(attached) == 0 {
		return nil, errors.NewNoClientsError(string(name), bufNr)
	}

	adapter := d.registry.Adapter(name)
	outcomes := make(chan outcome, len(attached))

	for _, client := range attached {
		go func(client types.Client) {
			// Skip the round-trip when the backend can tell us the
			// method is not served.
			if supported, known := adapter.Supports(ctx, client, method); known && !supported {
				outcomes <- outcome{client: client, err: errors.NewUnsupportedError(method, client.ID)}
				return
			}

			params, err := paramsFor(ctx, client)
			if err != nil {
				outcomes <- outcome{client: client, err: err}
				return
			}

			raw, err := adapter.Request(ctx, client, method, params, bufNr)
			outcomes <- outcome{client: client, raw: raw, err: err}
		}(client)
	}

	results := make([]Result, 0, len(attached))
	var failures []string
	unsupported := 0
	deadline := time.After(d.overallTimeout)

	received := 0
collect:
	for received < len(attached) {
		select {
		case o := <-outcomes:
			received++
			if o.err != nil {
				if errors.IsUnsupportedError(o.err) {
					unsupported++
				}
				failures = append(failures, fmt.Sprintf("%s/%s: %v", o.client.Name, o.client.ID, o.err))
				continue
			}
			results = append(results, Result{Client: o.client, Raw: o.raw})
		case <-deadline:
			common.ClientLogger.Warn("overall deadline reached, returning partial results (%d/%d clients responded)", received, len(attached))
			break collect
		case <-ctx.Done():
			return results, errors.WrapWithContext("dispatch "+method, ctx.Err())
		}
	}

	if len(results) == 0 {
		if unsupported == len(attached) {
			return nil, errors.NewUnsupportedError(method, "")
		}
		return nil, fmt.Errorf("no results for %s: %s", method, strings.Join(failures, "; "))
	}

	if len(failures) > 0 {
		common.ClientLogger.Warn("some clients failed during %s: %s", method, strings.Join(failures, "; "))
	}
	return results, nil
}

// DispatchSingle routes one request to the exact client that produced
// an earlier result. Used for */resolve round-trips and tree expansion,
// which must go back to the originating server.
func (d *Dispatcher) DispatchSingle(ctx context.Context, client types.Client, bufNr int, method string, params interface{}) (json.RawMessage, error) {
	if !types.IsSupportedMethod(method) {
		return nil, errors.NewValidationError("method", "unsupported method: "+method)
	}
	adapter := d.registry.Adapter(client.Name)
	if adapter == nil {
		return nil, errors.NewValidationError("client.name", "unknown client name: "+string(client.Name))
	}
	return adapter.Request(ctx, client, method, params, bufNr)
}
