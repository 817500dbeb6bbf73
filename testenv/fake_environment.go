// Package testenv provides a deterministic rollout.EnvironmentPort double:
// a virtual clock, a manually fired one-shot timer, and a scriptable HTTP
// responder. Tests drive time and timer fires explicitly instead of
// sleeping on wall-clock timers, following the hand-written-fake-over-
// mocking-framework approach used throughout this module's tests.
package testenv

import (
	"sync"
	"time"

	"rollout-manager/rollout"
)

// Responder answers one HttpRequest synchronously.
type Responder func(req rollout.HttpRequest) rollout.HttpResult

// FakeEnvironment is a rollout.EnvironmentPort double for tests.
type FakeEnvironment struct {
	mu sync.Mutex

	now time.Time

	// ArmedCount is cumulative: it never decreases, even after a timer
	// fires, so tests can assert the total number of timers armed over the
	// life of the test.
	ArmedCount int

	pending  func()
	released bool

	Responder Responder

	logs []logEntry
}

type logEntry struct {
	level rollout.LogLevel
	msg   string
}

// NewFakeEnvironment returns a FakeEnvironment whose clock starts at start.
func NewFakeEnvironment(start time.Time) *FakeEnvironment {
	return &FakeEnvironment{now: start}
}

// RunHttpRequest implements rollout.EnvironmentPort by calling Responder
// synchronously: done always runs on the calling goroutine, after Responder
// returns, so a Responder that blocks holds up the caller until it returns.
func (e *FakeEnvironment) RunHttpRequest(req rollout.HttpRequest, done rollout.HttpCompletion) {
	if e.Responder == nil {
		done(rollout.HttpResult{Err: rollout.ErrTransport})
		return
	}
	done(e.Responder(req))
}

// StartPeriodicTimer implements rollout.EnvironmentPort. It records the
// continuation without scheduling any real wall-clock wait; call Fire to
// invoke it.
func (e *FakeEnvironment) StartPeriodicTimer(_ time.Duration, continuation func()) rollout.TimerHandle {
	e.mu.Lock()
	e.ArmedCount++
	e.pending = continuation
	e.released = false
	e.mu.Unlock()
	return &fakeTimerHandle{env: e}
}

// Now implements rollout.EnvironmentPort.
func (e *FakeEnvironment) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// Log implements rollout.EnvironmentPort by buffering entries for
// inspection instead of writing anywhere.
func (e *FakeEnvironment) Log(level rollout.LogLevel, msg string, _ ...any) {
	e.mu.Lock()
	e.logs = append(e.logs, logEntry{level: level, msg: msg})
	e.mu.Unlock()
}

// Advance moves the virtual clock forward by d.
func (e *FakeEnvironment) Advance(d time.Duration) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
	return e.now
}

// SetNow pins the virtual clock to t.
func (e *FakeEnvironment) SetNow(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = t
}

// Fire invokes the currently armed timer's continuation, if any, and clears
// it. Firing when nothing is armed is a no-op.
func (e *FakeEnvironment) Fire() {
	e.mu.Lock()
	fn := e.pending
	e.pending = nil
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// HasPendingTimer reports whether a timer is currently armed and has not
// been fired or released.
func (e *FakeEnvironment) HasPendingTimer() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

type fakeTimerHandle struct {
	env *FakeEnvironment
}

func (h *fakeTimerHandle) Release() {
	h.env.mu.Lock()
	defer h.env.mu.Unlock()
	h.env.pending = nil
	h.env.released = true
}
