// Package middleware composes the outbound-HTTP pipeline the concrete
// environment runs every fetch through: rate limiting, a per-request
// timeout, and logging.
//
// The composition shape is the standard onion-wrapping pattern: Middleware
// wraps a HandlerFunc, Chain nests them in order. Here HandlerFunc
// processes a rollout.HttpRequest and returns a rollout.HttpResult,
// because the thing being guarded is an outbound GET to the Service
// Management API rather than an inbound call.
package middleware

import (
	"context"

	"rollout-manager/rollout"
)

// HandlerFunc performs one synchronous HTTP round trip.
type HandlerFunc func(ctx context.Context, req rollout.HttpRequest) rollout.HttpResult

// Middleware wraps a HandlerFunc with cross-cutting behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into a single Middleware, executing them in
// the order given: Chain(A, B)(handler) == A(B(handler)).
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
