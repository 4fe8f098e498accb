package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spektr-org/pgexplorer/engine"
)

const (
	MetricRecomputes       = "recomputes_total"
	MetricRecomputeSeconds = "recompute_duration_seconds"
	MetricFilteredRows     = "filtered_rows"
	MetricDatasetRows      = "dataset_rows"
)

// Metrics holds the collectors exported on /metrics. Each Metrics owns its
// registry so tests can build as many servers as they like.
type Metrics struct {
	Registry *prometheus.Registry

	Recomputes       prometheus.Counter
	RecomputeSeconds prometheus.Histogram
	FilteredRows     prometheus.Gauge
	DatasetRows      prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pgexplorer",
			Name:      MetricRecomputes,
			Help:      "Dashboard recomputes triggered by selection changes.",
		}),
		RecomputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pgexplorer",
			Name:      MetricRecomputeSeconds,
			Help:      "Time spent filtering, aggregating and building charts.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		FilteredRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pgexplorer",
			Name:      MetricFilteredRows,
			Help:      "Rows in the current 3D view.",
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pgexplorer",
			Name:      MetricDatasetRows,
			Help:      "Rows loaded from the dataset.",
		}),
	}
	m.Registry.MustRegister(m.Recomputes, m.RecomputeSeconds, m.FilteredRows, m.DatasetRows)
	return m
}

// Observe records one recompute. It has the shape of binder.Observer.
func (m *Metrics) Observe(dash *engine.Dashboard, elapsed time.Duration) {
	m.Recomputes.Inc()
	m.RecomputeSeconds.Observe(elapsed.Seconds())
	if dash != nil {
		m.FilteredRows.Set(float64(dash.RowCount))
	}
}
