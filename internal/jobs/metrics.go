// Package jobs records Prometheus metrics for gallery maintenance: the
// schema migration run at startup and the periodic duplicate sweep.
package jobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricMaintenanceRuns        = "gallery_maintenance_runs_total"
	MetricMaintenanceDuration    = "gallery_maintenance_duration_seconds"
	MetricMaintenanceErrors      = "gallery_maintenance_errors_total"
	MetricMaintenanceLastSuccess = "gallery_maintenance_last_success_timestamp_seconds"
)

// Maintenance jobs.
const (
	JobTypeGalleryDedupe  = "gallery_dedupe"
	JobTypeGalleryMigrate = "gallery_migrate"
)

// Run outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the maintenance collectors. Safe for concurrent use.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

// NewMetrics creates unregistered maintenance metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricMaintenanceRuns,
				Help: "Gallery maintenance runs by job and outcome",
			},
			[]string{"job", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricMaintenanceDuration,
				Help:    "Gallery maintenance run duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.25, 1, 5, 30},
			},
			[]string{"job"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricMaintenanceErrors,
				Help: "Failed gallery maintenance runs by job and error type",
			},
			[]string{"job", "error_type"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricMaintenanceLastSuccess,
				Help: "Unix time of the last successful run of each maintenance job",
			},
			[]string{"job"},
		),
		now: time.Now,
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Track runs fn as one run of job. A failure is counted under errorType;
// a success moves the job's last-success timestamp forward.
func (m *Metrics) Track(job, errorType string, fn func() error) error {
	start := m.now()
	err := fn()
	m.duration.WithLabelValues(job).Observe(m.now().Sub(start).Seconds())
	if err != nil {
		m.runs.WithLabelValues(job, StatusFailure).Inc()
		m.errors.WithLabelValues(job, errorType).Inc()
		return err
	}
	m.runs.WithLabelValues(job, StatusSuccess).Inc()
	m.lastSuccess.WithLabelValues(job).Set(float64(m.now().Unix()))
	return nil
}

// Collectors returns every collector, for registration and tests.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runs, m.duration, m.errors, m.lastSuccess}
}
