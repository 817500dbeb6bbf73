// Package environment is the concrete EnvironmentPort: real HTTP execution
// over net/http, a real one-shot timer over time.AfterFunc, the real wall
// clock, and structured logging over zap. It is the only package in this
// module that touches the network — the core (rollout, throttle, fetcher,
// assembler) depends only on the rollout.EnvironmentPort interface and
// never imports this package.
//
// The overall shape — hold a shared client, build a request per call,
// dispatch the result back through a callback — generalizes an ordinary
// RPC client's Call method from a framed round trip to a plain HTTP round
// trip.
package environment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rollout-manager/middleware"
	"rollout-manager/rollout"
)

// HTTPEnvironment is the production rollout.EnvironmentPort.
type HTTPEnvironment struct {
	client  *http.Client
	handler middleware.HandlerFunc
	logger  *zap.Logger
	metrics *Metrics
}

// Options configures HTTPEnvironment. Zero-value fields fall back to
// sensible defaults.
type Options struct {
	// RequestTimeout bounds a single HTTP round trip. Defaults to 10s.
	RequestTimeout time.Duration
	// RateLimit and RateBurst configure the token bucket guarding outbound
	// calls to the Service Management API. Defaults to 5 req/s, burst 10 —
	// comfortably above one proxy's steady-state need, while still
	// smoothing a thundering herd of cache-miss retries.
	RateLimit float64
	RateBurst int
	// Logger defaults to zap.NewNop() if nil.
	Logger *zap.Logger
	// Metrics may be nil to disable metrics collection entirely.
	Metrics *Metrics
}

// NewHTTPEnvironment builds an HTTPEnvironment from opts.
func NewHTTPEnvironment(opts Options) *HTTPEnvironment {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	env := &HTTPEnvironment{
		client:  &http.Client{},
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	env.handler = middleware.Chain(
		middleware.LoggingMiddleware(opts.Logger),
		middleware.RateLimitMiddleware(opts.RateLimit, opts.RateBurst),
		middleware.TimeOutMiddleware(opts.RequestTimeout),
	)(env.doRequest)

	return env
}

// RunHttpRequest implements rollout.EnvironmentPort. It runs the configured
// middleware chain on a dedicated goroutine and reports the result through
// done — the core never blocks on this call.
func (e *HTTPEnvironment) RunHttpRequest(req rollout.HttpRequest, done rollout.HttpCompletion) {
	go func() {
		requestId := uuid.New().String()
		if req.Headers == nil {
			req.Headers = map[string]string{}
		}
		req.Headers["X-Request-Id"] = requestId

		start := time.Now()
		res := e.handler(context.Background(), req)
		e.metrics.observeFetch(endpointLabel(req.URL), outcomeLabel(res), time.Since(start).Seconds())
		done(res)
	}()
}

// StartPeriodicTimer implements rollout.EnvironmentPort over time.AfterFunc.
// Despite the name, it is used purely as a one-shot: the controller arms a
// fresh timer for each cycle rather than reusing this one.
func (e *HTTPEnvironment) StartPeriodicTimer(interval time.Duration, continuation func()) rollout.TimerHandle {
	e.metrics.ObserveTimerArmed()
	t := time.AfterFunc(interval, continuation)
	return &timerHandle{t: t}
}

// Now implements rollout.EnvironmentPort.
func (e *HTTPEnvironment) Now() time.Time {
	return time.Now()
}

// Log implements rollout.EnvironmentPort over zap.
func (e *HTTPEnvironment) Log(level rollout.LogLevel, msg string, fields ...any) {
	zf := toZapFields(fields)
	switch level {
	case rollout.LogWarn:
		e.logger.Warn(msg, zf...)
	case rollout.LogError:
		e.logger.Error(msg, zf...)
	default:
		e.logger.Info(msg, zf...)
	}
}

// doRequest is the innermost middleware.HandlerFunc: the actual net/http
// round trip.
func (e *HTTPEnvironment) doRequest(ctx context.Context, req rollout.HttpRequest) rollout.HttpResult {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return rollout.HttpResult{Err: err}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return rollout.HttpResult{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rollout.HttpResult{Err: err}
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return rollout.HttpResult{StatusCode: resp.StatusCode, Headers: headers, Body: body}
}

type timerHandle struct {
	t *time.Timer
}

func (h *timerHandle) Release() {
	h.t.Stop()
}

func toZapFields(fields []any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		out = append(out, zap.Any(key, fields[i+1]))
	}
	return out
}

func outcomeLabel(res rollout.HttpResult) string {
	if res.Err != nil {
		return "error"
	}
	if res.StatusCode != http.StatusOK {
		return "http_error"
	}
	return "ok"
}

// endpointLabel keeps the prometheus endpoint label low-cardinality: it
// distinguishes the two fixed endpoint shapes (rollouts-list vs.
// config-fetch) rather than exposing full URLs, which would carry an
// unbounded serviceName/configId cardinality into Prometheus.
func endpointLabel(url string) string {
	const rolloutsMarker = "/rollouts?"
	for i := 0; i+len(rolloutsMarker) <= len(url); i++ {
		if url[i:i+len(rolloutsMarker)] == rolloutsMarker {
			return "rollouts"
		}
	}
	return "config"
}
