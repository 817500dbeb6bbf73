package rollout

import "time"

// HttpRequest is the transport-agnostic description of a single outbound
// GET. The core never constructs anything richer than this — no bodies, no
// custom verbs — because both remote endpoints it calls are plain GETs.
type HttpRequest struct {
	URL     string
	Headers map[string]string
}

// HttpResult is what a completed HttpRequest yields. Err is set for
// transport-level failure (DNS, TLS, connection refused, timeout); a
// non-nil Err means StatusCode/Headers/Body are meaningless.
type HttpResult struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Err        error
}

// HttpCompletion is invoked exactly once per RunHttpRequest call, on
// whatever goroutine the EnvironmentPort chooses.
type HttpCompletion func(HttpResult)

// TimerHandle represents a single armed one-shot timer. Release cancels any
// pending fire; it is a no-op if the timer has already fired.
type TimerHandle interface {
	Release()
}

// LogLevel mirrors the handful of severities the core actually needs.
type LogLevel int

const (
	LogInfo LogLevel = iota
	LogWarn
	LogError
)

// EnvironmentPort is the abstract boundary between the core control loop
// and everything outside it: HTTP execution, the periodic timer primitive,
// the wall clock, and logging. The core only ever calls
// these four methods; how they're backed (real net/http and time.AfterFunc,
// or a deterministic fake in tests) is invisible to Controller.
type EnvironmentPort interface {
	// RunHttpRequest submits req and signals completion via done. May
	// complete synchronously (on the calling goroutine) or asynchronously.
	RunHttpRequest(req HttpRequest, done HttpCompletion)

	// StartPeriodicTimer arms a one-shot timer: continuation fires once,
	// after interval, on a goroutine the environment chooses. The name is
	// inherited from the underlying primitive's signature; the core never
	// re-arms the handle itself and always starts a fresh timer for the
	// next cycle.
	StartPeriodicTimer(interval time.Duration, continuation func()) TimerHandle

	// Now returns the current wall-clock time. Test doubles inject virtual
	// times here so throttle-window arithmetic is deterministic.
	Now() time.Time

	// Log emits a structured log line. fields alternate key, value as in
	// zap.Logger's SugaredLogger; the core treats logging as best-effort
	// and never inspects it.
	Log(level LogLevel, msg string, fields ...any)
}
