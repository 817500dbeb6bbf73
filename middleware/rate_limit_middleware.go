package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"rollout-manager/rollout"
)

// RateLimitMiddleware gates outbound requests through a token-bucket
// limiter, defending the Service Management API from a fleet of proxies
// fetching at once. Blocking rather than rejecting is correct here: a
// rollout fetch that waits a moment for a token is still well within the
// throttle window.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req rollout.HttpRequest) rollout.HttpResult {
			if err := limiter.Wait(ctx); err != nil {
				return rollout.HttpResult{Err: err}
			}
			return next(ctx, req)
		}
	}
}
