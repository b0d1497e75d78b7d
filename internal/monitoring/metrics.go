// Package monitoring exposes Prometheus metrics for pipeline runs.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotspot"

// Metrics holds the Prometheus collectors for the map pipeline.
type Metrics struct {
	RecordsFetched prometheus.Counter
	RecordsKept    prometheus.Counter
	RecordsDropped prometheus.Counter
	RunsTotal      *prometheus.CounterVec // labels: outcome={success,error}
	StageDuration  *prometheus.HistogramVec
	CleanupTotal   *prometheus.CounterVec // labels: outcome={skipped,kept,deleted,error}
	LastRunSuccess prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Raw hotspot records returned by the data source.",
		}),
		RecordsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_kept_total",
			Help:      "Records that passed coordinate cleaning.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records dropped for missing or invalid coordinates.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		CleanupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_total",
			Help:      "Artifact cleanup decisions by outcome.",
		}, []string{"outcome"}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the most recent pipeline run succeeded, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsFetched,
		m.RecordsKept,
		m.RecordsDropped,
		m.RunsTotal,
		m.StageDuration,
		m.CleanupTotal,
		m.LastRunSuccess,
	}
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// means the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to
// avoid "already registered" panics across tests.
func NewMetricsForTesting() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}
