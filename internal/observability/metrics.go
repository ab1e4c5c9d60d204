package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the refresh/query path.
type Metrics struct {
	Refreshes       prometheus.Counter
	RefreshErrors   prometheus.Counter
	RefreshDuration prometheus.Histogram

	CurrentIssues   prometheus.Gauge
	ArchivedIssues  prometheus.Gauge
	ArchiveSpanDays prometheus.Gauge
}

// NewMetrics creates and registers all instruments with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.RefreshErrors,
		m.RefreshDuration,
		m.CurrentIssues,
		m.ArchivedIssues,
		m.ArchiveSpanDays,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "awstatus",
			Name:      "refreshes_total",
			Help:      "Total successful issue feed refreshes.",
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "awstatus",
			Name:      "refresh_errors_total",
			Help:      "Total failed issue feed refreshes.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "awstatus",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-and-normalize refresh.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CurrentIssues: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "awstatus",
			Name:      "current_issues",
			Help:      "Issues in the current collection after the last refresh.",
		}),
		ArchivedIssues: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "awstatus",
			Name:      "archived_issues",
			Help:      "Issues in the archived collection after the last refresh.",
		}),
		ArchiveSpanDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "awstatus",
			Name:      "archive_span_days",
			Help:      "Days between now and the oldest archived issue.",
		}),
	}
}
