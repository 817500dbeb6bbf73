// Package rollout implements the control loop that keeps a proxy's in-memory
// service configuration current with a remote control plane publishing
// traffic-weighted rollouts.
//
// The hard part lives in Controller: debouncing change notifications into
// randomized-delay fetch cycles, fanning out a rollout fetch followed by N
// dependent config fetches, and guaranteeing the consumer callback fires only
// on a fully assembled, consistent snapshot.
package rollout

// Id is an opaque, equality-comparable rollout identifier published by the
// control plane. Ordering is not meaningful.
type Id string

// ConfigId is an opaque, per-service-unique service-config identifier.
type ConfigId string

// ServiceConfig is one versioned configuration document. The core never
// interprets Payload — it forwards the bytes exactly as fetched.
type ServiceConfig struct {
	Id      ConfigId
	Payload []byte
}

// WeightedConfig pairs a ServiceConfig with its traffic percentage, as
// published by the control plane. Percent is carried through unvalidated;
// a rollout whose percentages don't sum to 100 is passed through as-is.
type WeightedConfig struct {
	Config  ServiceConfig
	Percent int
}

// Snapshot is the fully assembled, atomically delivered bundle: a rollout id
// plus the ordered list of weighted configs it references.
type Snapshot struct {
	RolloutId Id
	Configs   []WeightedConfig
}
