// Package kit provides the endpoint abstraction and transport adapters
// shared by every tool surface in browser-mcp.
package kit

import "context"

// Endpoint is the fundamental unit of request handling: a function taking
// a typed request and returning a typed response. Transports (MCP, HTTP)
// adapt their wire formats onto Endpoints.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left-to-right: the first middleware is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
