// Package clients enumerates attached language clients per backend and
// adapts the finder's logical requests onto each backend's own RPC
// surface. The backend set is closed; the registry constructor wires
// exactly one adapter per name.
package clients

import (
	"context"
	"encoding/json"
	"time"

	"lsp-finder/src/host"
	"lsp-finder/src/internal/types"
)

// Adapter hides one backend's transport quirks behind a uniform
// request capability.
type Adapter interface {
	// Name identifies the backend this adapter serves.
	Name() types.ClientName

	// ListClients returns a descriptor for every client of this
	// backend attached to the buffer. An empty slice with a nil error
	// means no client is attached; callers must not treat that as a
	// failure.
	ListClients(ctx context.Context, bufNr int) ([]types.Client, error)

	// Request sends a typed request to one client and returns the raw
	// result. A JSON null or nil result means "no data", distinct from
	// an empty array and from an error. Timeouts and unsupported
	// methods come back as typed errors from internal/errors.
	Request(ctx context.Context, client types.Client, method string, params interface{}, bufNr int) (json.RawMessage, error)

	// Supports reports whether the client serves the method. known is
	// false when the backend offers no way to ask without issuing the
	// request itself.
	Supports(ctx context.Context, client types.Client, method string) (supported, known bool)
}

// Registry resolves which clients are attached to a buffer for a named
// backend. Descriptors are rebuilt on every call: attachments change
// between requests.
type Registry struct {
	adapters map[types.ClientName]Adapter
}

// NewRegistry builds the registry with one adapter per supported
// backend, all sharing the same host bridge. requestTimeout bounds one
// client round-trip; non-positive falls back to the built-in default.
func NewRegistry(h host.Host, requestTimeout time.Duration) *Registry {
	return &Registry{
		adapters: map[types.ClientName]Adapter{
			types.ClientNvimLSP: newNvimAdapter(h, requestTimeout),
			types.ClientCoc:     newCocAdapter(h, requestTimeout),
			types.ClientVimLSP:  newVimLSPAdapter(h, requestTimeout),
		},
	}
}

// NewRegistryWith builds a registry from explicit adapters. Lets tests
// substitute fake backends for the host-backed ones.
func NewRegistryWith(adapters ...Adapter) *Registry {
	m := make(map[types.ClientName]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// Adapter returns the adapter for the named backend, or nil for a name
// outside the closed set.
func (r *Registry) Adapter(name types.ClientName) Adapter {
	return r.adapters[name]
}

// ListClients enumerates attached clients of the named backend.
func (r *Registry) ListClients(ctx context.Context, name types.ClientName, bufNr int) ([]types.Client, error) {
	a := r.adapters[name]
	if a == nil {
		return nil, &unknownClientNameError{name: string(name)}
	}
	return a.ListClients(ctx, bufNr)
}

type unknownClientNameError struct{ name string }

func (e *unknownClientNameError) Error() string {
	return "unknown client name: " + e.name
}
