// Package transport provides the wire-level execution primitives for
// JSON-RPC calls: an HTTP client, a WebSocket client, and composable
// decorators for retry and circuit breaking.
//
// Transport-level failures (network errors, malformed bodies, non-200
// statuses) are reported through the error return. A per-call error
// returned by the server arrives inside the Response and is never
// promoted to a transport error.
package transport

import (
	"context"
	"errors"

	"w3batch/jsonrpc"
)

// ErrNotConnected is returned by connection-oriented transports when
// used before Connect or after Close.
var ErrNotConnected = errors.New("transport: not connected")

// Transport executes JSON-RPC calls against a single endpoint.
//
// CallBatch sends all requests as one wire-level batch, preserving
// order. A nil error means the batch itself was delivered and answered;
// individual responses may still carry per-call errors. Responses are
// not guaranteed to arrive in request order and must be matched by id.
type Transport interface {
	Call(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)
	CallBatch(ctx context.Context, reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error)
}

// Closer is implemented by transports holding a persistent connection.
type Closer interface {
	Close() error
}
