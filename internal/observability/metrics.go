// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Run metrics
	RunsTotal    *prometheus.CounterVec // labeled by result: success | failure
	BarsFetched  prometheus.Counter
	RowsUpserted prometheus.Counter

	// Latency metrics
	FetchDuration  prometheus.Histogram
	UpsertDuration prometheus.Histogram

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "forex_bar_lab"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by result",
		}, []string{"result"}),
		BarsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "bars_total",
			Help:      "Total number of bars fetched from the provider",
		}),
		RowsUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "rows_upserted_total",
			Help:      "Total number of bar rows written to storage",
		}),
		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Provider fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		UpsertDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "upsert_duration_seconds",
			Help:      "Bulk upsert duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful pipeline run",
		}),
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
