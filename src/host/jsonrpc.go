package host

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"go.lsp.dev/jsonrpc2"
)

// RPC method names on the editor plugin side.
const (
	methodCall = "host/call"
	methodEval = "host/eval"
	methodLua  = "host/lua"

	// MethodCallback is the notification the plugin sends to fire a
	// registered lambda.
	MethodCallback = "host/callback"
)

type callParams struct {
	Fn   string        `json:"fn"`
	Args []interface{} `json:"args"`
}

type evalParams struct {
	Expr string      `json:"expr"`
	Env  interface{} `json:"env,omitempty"`
}

type luaParams struct {
	Code string        `json:"code"`
	Args []interface{} `json:"args"`
}

type callbackParams struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Conn is a Host backed by a jsonrpc2 connection to the editor plugin.
type Conn struct {
	conn jsonrpc2.Conn

	mu        sync.Mutex
	nextID    int
	callbacks map[string]func(json.RawMessage)
}

// NewConn wraps an established jsonrpc2 connection. The caller must
// route host/callback notifications into Dispatch.
func NewConn(conn jsonrpc2.Conn) *Conn {
	return &Conn{
		conn:      conn,
		callbacks: make(map[string]func(json.RawMessage)),
	}
}

func (c *Conn) Call(ctx context.Context, fn string, args ...interface{}) (json.RawMessage, error) {
	if args == nil {
		args = []interface{}{}
	}
	var result json.RawMessage
	_, err := c.conn.Call(ctx, methodCall, callParams{Fn: fn, Args: args}, &result)
	if err != nil {
		return nil, fmt.Errorf("host call %s: %w", fn, err)
	}
	return result, nil
}

func (c *Conn) Eval(ctx context.Context, expr string, env interface{}) (json.RawMessage, error) {
	var result json.RawMessage
	_, err := c.conn.Call(ctx, methodEval, evalParams{Expr: expr, Env: env}, &result)
	if err != nil {
		return nil, fmt.Errorf("host eval: %w", err)
	}
	return result, nil
}

func (c *Conn) Lua(ctx context.Context, code string, args ...interface{}) (json.RawMessage, error) {
	if args == nil {
		args = []interface{}{}
	}
	var result json.RawMessage
	_, err := c.conn.Call(ctx, methodLua, luaParams{Code: code, Args: args}, &result)
	if err != nil {
		return nil, fmt.Errorf("host lua: %w", err)
	}
	return result, nil
}

func (c *Conn) Register(fn func(json.RawMessage)) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := "lambda-" + strconv.Itoa(c.nextID)
	c.callbacks[id] = fn
	return id
}

func (c *Conn) Unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.callbacks, id)
}

// Dispatch routes a host/callback notification payload to the
// registered lambda. Unknown ids are ignored: the callback may already
// have been unregistered by a timed-out waiter.
func (c *Conn) Dispatch(params json.RawMessage) {
	var cb callbackParams
	if err := json.Unmarshal(params, &cb); err != nil {
		return
	}
	c.mu.Lock()
	fn := c.callbacks[cb.ID]
	c.mu.Unlock()
	if fn != nil {
		fn(cb.Payload)
	}
}

var _ Host = (*Conn)(nil)
