package middleware

import (
	"context"
	"time"

	"rollout-manager/rollout"
)

// TimeOutMiddleware bounds one round trip to timeout. next already takes a
// context and the concrete HTTP call understands cancellation, so setting
// the deadline is enough — no separate goroutine race against ctx.Done()
// is needed.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req rollout.HttpRequest) rollout.HttpResult {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, req)
		}
	}
}
