// Package host is the RPC bridge to the editor plugin process. Backend
// adapters never talk to a language server directly; every round-trip
// goes through one of these calls into the editor, which owns the three
// client ecosystems.
package host

import (
	"context"
	"encoding/json"
)

// Host is the editor side of the bridge.
type Host interface {
	// Call invokes an editor function with positional arguments.
	Call(ctx context.Context, fn string, args ...interface{}) (json.RawMessage, error)

	// Eval evaluates an editor expression. env is bound as local
	// variables referenced from the expression.
	Eval(ctx context.Context, expr string, env interface{}) (json.RawMessage, error)

	// Lua evaluates a Lua chunk in the embedded runtime with args
	// exposed to the chunk. Only meaningful for hosts with one.
	Lua(ctx context.Context, code string, args ...interface{}) (json.RawMessage, error)

	// Register installs a callback reachable from editor code and
	// returns its lambda id. The editor fires it by sending a
	// host/callback notification carrying the id and a payload.
	Register(fn func(json.RawMessage)) string

	// Unregister removes a callback installed by Register.
	Unregister(id string)
}
