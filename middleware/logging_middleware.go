package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rollout-manager/rollout"
)

// LoggingMiddleware records duration and outcome for every round trip
// through a structured *zap.Logger, matching the logging stack used
// throughout the rest of this module.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req rollout.HttpRequest) rollout.HttpResult {
			start := time.Now()
			res := next(ctx, req)
			duration := time.Since(start)
			if res.Err != nil {
				logger.Warn("http fetch failed", zap.String("url", req.URL), zap.Duration("duration", duration), zap.Error(res.Err))
			} else {
				logger.Debug("http fetch completed", zap.String("url", req.URL), zap.Duration("duration", duration), zap.Int("status", res.StatusCode))
			}
			return res
		}
	}
}
