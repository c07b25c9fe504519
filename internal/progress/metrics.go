package progress

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRunsStarted   = "progress_runs_started_total"
	MetricRunsCompleted = "progress_runs_completed_total"
	MetricRunsCancelled = "progress_runs_cancelled_total"
	MetricRunsActive    = "progress_runs_active"
	MetricRunDuration   = "progress_run_duration_seconds"
)

// Metrics contains Prometheus metrics for progress runs.
// All operations are thread-safe.
type Metrics struct {
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runsCancelled *prometheus.CounterVec
	runsActive    prometheus.Gauge
	runDuration   *prometheus.HistogramVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsStarted,
				Help: "Total number of progress runs started by plan",
			},
			[]string{"plan"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsCompleted,
				Help: "Total number of progress runs that reached completion by plan",
			},
			[]string{"plan"},
		),
		runsCancelled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsCancelled,
				Help: "Total number of progress runs cancelled or superseded before completion by plan",
			},
			[]string{"plan"},
		),
		runsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricRunsActive,
				Help: "Number of progress runs currently ticking",
			},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRunDuration,
				Help:    "Wall-clock duration of completed progress runs in seconds",
				Buckets: []float64{0.25, 0.5, 1, 1.5, 2, 3, 5},
			},
			[]string{"plan"},
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

func (m *Metrics) runStarted(p Plan) {
	m.runsStarted.WithLabelValues(string(p)).Inc()
	m.runsActive.Inc()
}

func (m *Metrics) runCompleted(p Plan, seconds float64) {
	m.runsCompleted.WithLabelValues(string(p)).Inc()
	m.runDuration.WithLabelValues(string(p)).Observe(seconds)
	m.runsActive.Dec()
}

func (m *Metrics) runCancelled(p Plan) {
	m.runsCancelled.WithLabelValues(string(p)).Inc()
	m.runsActive.Dec()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsStarted,
		m.runsCompleted,
		m.runsCancelled,
		m.runsActive,
		m.runDuration,
	}
}
