package rollout

import (
	"sync"
	"time"
)

// Consumer receives a fully assembled snapshot. It is invoked once per
// successful cycle that changes currentRolloutId, never concurrently with
// itself, and never on a failed or unchanged cycle.
type Consumer func(Snapshot)

// Throttler computes the randomized delay used to pace fetches across a
// fleet of proxies. See throttle.RandomThrottler for the concrete
// implementation.
type Throttler interface {
	NextDelay() time.Duration
}

// ConfigRef is one (configId, percent) pair as published by the control
// plane's trafficPercentStrategy.percentages map, before the config's bytes
// have been fetched.
type ConfigRef struct {
	Id      ConfigId
	Percent int
}

// RolloutFetchResult is what a Fetcher yields: either the winning rollout's
// id and its config references, or Err naming why the fetch failed.
type RolloutFetchResult struct {
	RolloutId Id
	Configs   []ConfigRef
	Err       error
}

// Fetcher issues the rollouts-list request and extracts the winning
// rollout. See fetcher.HTTPFetcher for the concrete implementation.
type Fetcher interface {
	Fetch(serviceName string, env EnvironmentPort, done func(RolloutFetchResult))
}

// AssembleResult is what an Assembler yields for one fetch cycle.
type AssembleResult struct {
	Configs []WeightedConfig
	Err     error
}

// Assembler fans out one HTTP GET per ConfigRef and aggregates the results.
// See assembler.FanOutAssembler for the concrete implementation.
type Assembler interface {
	Assemble(serviceName string, refs []ConfigRef, env EnvironmentPort, done func(AssembleResult))
}

// Controller is the core state machine: it tracks current vs. pending
// rollout id, debounces ObserveRolloutId notifications into a single armed
// timer, and drives the fetch-then-assemble pipeline to completion exactly
// once per cycle.
//
// All mutations of the state below happen under mu: one mutex guarding one
// serialized region, rather than a dedicated event loop goroutine. HTTP
// completions and timer fires reenter the controller through the same
// guarded methods and never hold mu across a suspension point (a
// RunHttpRequest call or the timer wait).
type Controller struct {
	serviceName    string
	consumer       Consumer
	env            EnvironmentPort
	throttler      Throttler
	fetcher        Fetcher
	assembler      Assembler
	throttleWindow time.Duration

	mu sync.Mutex

	currentRolloutId Id
	pendingRolloutId Id
	hasPending       bool

	nextFetchDeadline time.Time
	timerArmed        bool
	timerHandle       TimerHandle
	inflight          bool

	// armedAtObservedAt is the observedAt of the notification that caused
	// the currently armed-or-inflight timer to be scheduled. It seeds the
	// next throttle window once the cycle it triggers completes.
	armedAtObservedAt time.Time
}

// NewController builds a Controller bound to serviceName, consumer, and the
// given collaborators. throttleWindow is the configured fetch-throttle
// window; it governs nextFetchDeadline, independent of whatever delay
// distribution Throttler.NextDelay draws from.
func NewController(serviceName string, consumer Consumer, env EnvironmentPort, throttler Throttler, fetcher Fetcher, assembler Assembler, throttleWindow time.Duration) *Controller {
	return &Controller{
		serviceName:    serviceName,
		consumer:       consumer,
		env:            env,
		throttler:      throttler,
		fetcher:        fetcher,
		assembler:      assembler,
		throttleWindow: throttleWindow,
	}
}

// SetCurrentRolloutId seeds currentRolloutId. Idempotent, intended for
// startup only; it never arms a timer.
func (c *Controller) SetCurrentRolloutId(id Id) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentRolloutId = id
}

// CurrentRolloutId returns the last id for which a snapshot was delivered,
// or the seeded baseline if none has been delivered yet.
func (c *Controller) CurrentRolloutId() Id {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentRolloutId
}

// ObserveRolloutId notifies the controller that the control plane currently
// advertises id as of wall-clock time observedAt. This is the only entry
// point for change detection.
func (c *Controller) ObserveRolloutId(id Id, observedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == c.currentRolloutId {
		// Unchanged id: no state change, no timer action, regardless of
		// timing or of any stale pending value.
		return
	}

	c.pendingRolloutId = id
	c.hasPending = true

	if c.timerArmed {
		// A timer is already going to fetch whatever is pending when it
		// fires. Absorb this notification.
		return
	}
	if c.inflight {
		// A cycle is already fetching. Don't arm a second timer — the next
		// qualifying notification after this cycle completes will.
		return
	}
	if !c.nextFetchDeadline.IsZero() && observedAt.Before(c.nextFetchDeadline) {
		// Still inside the throttle window from the last cycle. Wait for a
		// later notification; the controller never arms a "future" timer
		// on its own.
		return
	}

	delay := c.throttler.NextDelay()
	c.armedAtObservedAt = observedAt
	c.timerHandle = c.env.StartPeriodicTimer(delay, c.onTimerFire)
	c.timerArmed = true
}

// onTimerFire is invoked by the environment when the armed timer fires. It
// captures the currently pending id and kicks off a fetch cycle.
func (c *Controller) onTimerFire() {
	c.mu.Lock()
	c.timerArmed = false
	c.timerHandle = nil
	targetId := c.pendingRolloutId
	c.inflight = true
	c.mu.Unlock()

	c.env.Log(LogInfo, "rollout fetch cycle starting", "service", c.serviceName, "target", string(targetId))

	c.fetcher.Fetch(c.serviceName, c.env, func(fr RolloutFetchResult) {
		c.onRolloutFetched(targetId, fr)
	})
}

func (c *Controller) onRolloutFetched(targetId Id, fr RolloutFetchResult) {
	if fr.Err != nil {
		c.onCycleComplete(cycleOutcome{err: fr.Err})
		return
	}

	c.assembler.Assemble(c.serviceName, fr.Configs, c.env, func(ar AssembleResult) {
		if ar.Err != nil {
			c.onCycleComplete(cycleOutcome{err: ar.Err})
			return
		}
		c.onCycleComplete(cycleOutcome{
			snapshot: Snapshot{RolloutId: fr.RolloutId, Configs: ar.Configs},
		})
	})
}

// cycleOutcome is the internal result of one fetch cycle, handed from the
// fetch/assemble pipeline to onCycleComplete.
type cycleOutcome struct {
	snapshot Snapshot
	err      error
}

// onCycleComplete closes out the cycle's bookkeeping and, on success,
// delivers the snapshot iff the rollout id actually changed.
func (c *Controller) onCycleComplete(result cycleOutcome) {
	c.mu.Lock()
	c.inflight = false
	c.nextFetchDeadline = c.armedAtObservedAt.Add(c.throttleWindow)

	var deliver *Snapshot
	if result.err != nil {
		c.env.Log(LogError, "rollout fetch cycle failed", "service", c.serviceName, "error", result.err.Error())
	} else if result.snapshot.RolloutId == c.currentRolloutId {
		c.env.Log(LogInfo, "rollout fetch cycle produced no change", "service", c.serviceName, "rolloutId", string(result.snapshot.RolloutId))
	} else {
		c.currentRolloutId = result.snapshot.RolloutId
		snap := result.snapshot
		deliver = &snap
	}
	c.mu.Unlock()

	if deliver != nil {
		c.consumer(*deliver)
	}
}
