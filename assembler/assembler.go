// Package assembler fans out one HTTP GET per service-config reference and
// aggregates the results into a single all-or-nothing outcome.
//
// The fan-out/aggregate shape combines two patterns: a pending-slot table
// (each outstanding request gets its own slot, keyed by sequence number,
// and a response routes back to exactly that slot) and a buffered-channel
// semaphore (bounding how many requests are outstanding at once). Here the
// "sequence number" is the ConfigRef's position in the input slice, and the
// "response routing" is simply writing into that index of a preallocated
// results slice — safe without extra locking because each goroutine owns a
// distinct index.
package assembler

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"rollout-manager/rollout"
)

const configURLTemplate = "https://servicemanagement.googleapis.com/v1/services/%s/configs/%s"

// DefaultMaxConcurrentFetches bounds how many config fetches a single cycle
// issues at once, the same role a connection pool's max-size plays for
// bounding outstanding TCP connections.
const DefaultMaxConcurrentFetches = 8

// FanOutAssembler is the concrete rollout.Assembler.
type FanOutAssembler struct {
	// MaxConcurrent bounds in-flight config fetches per cycle. Zero means
	// DefaultMaxConcurrentFetches.
	MaxConcurrent int
}

// NewFanOutAssembler returns a FanOutAssembler bounded to maxConcurrent
// in-flight fetches (DefaultMaxConcurrentFetches if maxConcurrent <= 0).
func NewFanOutAssembler(maxConcurrent int) *FanOutAssembler {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentFetches
	}
	return &FanOutAssembler{MaxConcurrent: maxConcurrent}
}

// Assemble implements rollout.Assembler. It emits a success outcome only
// when every fetch in refs returned OK with a non-empty body; a single
// failure suppresses the whole cycle — no partial snapshot is ever handed
// to done.
func (a *FanOutAssembler) Assemble(serviceName string, refs []rollout.ConfigRef, env rollout.EnvironmentPort, done func(rollout.AssembleResult)) {
	if len(refs) == 0 {
		done(rollout.AssembleResult{Configs: nil})
		return
	}

	results := make([]rollout.WeightedConfig, len(refs))
	failed := make([]bool, len(refs))

	remaining := int32(len(refs))
	limit := a.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrentFetches
	}
	tokens := make(chan struct{}, limit)

	finish := func() {
		if atomic.AddInt32(&remaining, -1) != 0 {
			return
		}
		for _, f := range failed {
			if f {
				done(rollout.AssembleResult{Err: rollout.ErrPartialConfig})
				return
			}
		}
		done(rollout.AssembleResult{Configs: results})
	}

	for i, ref := range refs {
		i, ref := i, ref
		tokens <- struct{}{} // acquire, blocks once MaxConcurrent are outstanding
		url := fmt.Sprintf(configURLTemplate, serviceName, string(ref.Id))
		env.RunHttpRequest(rollout.HttpRequest{URL: url}, func(res rollout.HttpResult) {
			defer func() { <-tokens }() // release
			switch {
			case res.Err != nil:
				failed[i] = true
			case res.StatusCode != http.StatusOK:
				failed[i] = true
			case len(res.Body) == 0:
				failed[i] = true
			default:
				results[i] = rollout.WeightedConfig{
					Config:  rollout.ServiceConfig{Id: ref.Id, Payload: res.Body},
					Percent: ref.Percent,
				}
			}
			finish()
		})
	}
}
