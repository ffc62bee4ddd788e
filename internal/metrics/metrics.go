package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments of the repository.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	StorageFailures *prometheus.CounterVec
	ActiveFeeds     prometheus.Gauge
	Snapshots       *prometheus.CounterVec
}

// New creates the instruments and registers them with reg. Passing a fresh
// registry keeps tests independent of the global one.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfsee_mutations_total",
			Help: "Committed mutations by entity and operation",
		}, []string{"entity", "op"}),
		StorageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfsee_storage_failures_total",
			Help: "Storage failures returned to callers, by operation",
		}, []string{"op"}),
		ActiveFeeds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nfsee_live_feeds",
			Help: "Live query feeds currently open",
		}),
		Snapshots: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfsee_live_snapshots_total",
			Help: "Snapshots loaded for live feeds, by feed kind",
		}, []string{"feed"}),
	}
}

// Mutation records a committed mutation.
func (m *Metrics) Mutation(entity, op string) {
	m.Mutations.WithLabelValues(entity, op).Inc()
}

// StorageFailure records a storage failure for op.
func (m *Metrics) StorageFailure(op string) {
	m.StorageFailures.WithLabelValues(op).Inc()
}

// Snapshot records a snapshot load for a feed kind.
func (m *Metrics) Snapshot(feed string) {
	m.Snapshots.WithLabelValues(feed).Inc()
}
