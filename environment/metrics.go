package environment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics wraps the prometheus collectors this environment registers: a
// handful of CounterVec/HistogramVec fields behind promauto, with
// registration left to the caller's Registerer.
type Metrics struct {
	fetchesTotal   *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	timersArmed    prometheus.Counter
	cyclesDelivered prometheus.Counter
}

// NewMetrics registers a fresh set of collectors against reg. Pass
// prometheus.DefaultRegisterer in production, or a throwaway
// prometheus.NewRegistry() in tests to avoid collisions with other tests in
// the same process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollout_manager_http_fetches_total",
			Help: "Outbound fetches against the Service Management API, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollout_manager_http_fetch_duration_seconds",
			Help:    "Outbound fetch latency against the Service Management API.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"endpoint"}),
		timersArmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "rollout_manager_timers_armed_total",
			Help: "Number of times the controller armed a fetch timer.",
		}),
		cyclesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "rollout_manager_snapshots_delivered_total",
			Help: "Number of fetch cycles that delivered a new snapshot to the consumer.",
		}),
	}
}

func (m *Metrics) observeFetch(endpoint string, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(endpoint, outcome).Inc()
	m.fetchDuration.WithLabelValues(endpoint).Observe(seconds)
}

// ObserveTimerArmed records one call to StartPeriodicTimer. Exported since
// HTTPEnvironment is the only caller that can observe this directly — it's
// the thing backing the controller's timer primitive.
func (m *Metrics) ObserveTimerArmed() {
	if m == nil {
		return
	}
	m.timersArmed.Inc()
}

// ObserveSnapshotDelivered records one successful, change-bearing fetch
// cycle. The controller itself carries no metrics dependency — callers
// wrap their rollout.Consumer to call this when a snapshot actually
// arrives.
func (m *Metrics) ObserveSnapshotDelivered() {
	if m == nil {
		return
	}
	m.cyclesDelivered.Inc()
}
