package gallery

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricSavesTotal       = "gallery_saves_total"
	MetricDedupeRemoved    = "gallery_dedupe_removed_total"
	MetricLockWaitDuration = "gallery_save_lock_wait_seconds"
)

// Save outcome labels.
const (
	OutcomeCreated  = "created"
	OutcomeExisting = "existing"
	OutcomeError    = "error"
)

// Metrics contains Prometheus metrics for gallery operations.
// All operations are thread-safe.
type Metrics struct {
	saves         *prometheus.CounterVec
	dedupeRemoved prometheus.Counter
	lockWait      prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSavesTotal,
				Help: "Total number of gallery save calls by outcome",
			},
			[]string{"outcome"},
		),
		dedupeRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricDedupeRemoved,
				Help: "Total number of duplicate gallery images removed by maintenance sweeps",
			},
		),
		lockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricLockWaitDuration,
				Help:    "Time spent waiting for the gallery save lock in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncSave counts a save call with the given outcome.
func (m *Metrics) IncSave(outcome string) {
	m.saves.WithLabelValues(outcome).Inc()
}

// AddDedupeRemoved counts images removed by a maintenance sweep.
func (m *Metrics) AddDedupeRemoved(n int) {
	m.dedupeRemoved.Add(float64(n))
}

// ObserveLockWait records how long a save waited for the lock.
func (m *Metrics) ObserveLockWait(seconds float64) {
	m.lockWait.Observe(seconds)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.saves,
		m.dedupeRemoved,
		m.lockWait,
	}
}
