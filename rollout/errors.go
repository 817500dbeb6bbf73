package rollout

import "errors"

// Cycle failure kinds. All five collapse to "cycle failure" at the
// controller: none of them updates currentRolloutId or fires the consumer
// callback. They exist as distinct sentinels purely so the environment's
// logging and metrics layer can label a failure without string-matching.
var (
	// ErrTransport covers network failure, DNS, TLS — anything below HTTP.
	ErrTransport = errors.New("rollout: transport error")

	// ErrHTTPStatus covers a non-OK response code from the rollouts-list
	// endpoint. A non-OK config fetch is reported as ErrPartialConfig.
	ErrHTTPStatus = errors.New("rollout: non-OK http status")

	// ErrParse covers malformed JSON or a response missing required fields.
	ErrParse = errors.New("rollout: malformed response")

	// ErrEmptyRollout covers a rollouts-list response with no entries.
	ErrEmptyRollout = errors.New("rollout: rollouts list is empty")

	// ErrPartialConfig covers at least one failed config fetch within a
	// cycle that otherwise had a valid rollout.
	ErrPartialConfig = errors.New("rollout: one or more config fetches failed")
)
