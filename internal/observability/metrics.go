package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for summarization runs.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	StageFailuresTotal *prometheus.CounterVec
	CacheHitsTotal     prometheus.Counter
	UploadsRejected    *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papersum_runs_total",
				Help: "Total number of summarization runs by outcome",
			},
			[]string{"status"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "papersum_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		StageFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papersum_stage_failures_total",
				Help: "Total number of runs halted at a stage",
			},
			[]string{"stage"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "papersum_cache_hits_total",
				Help: "Summaries served from the store without a run",
			},
		),
		UploadsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papersum_uploads_rejected_total",
				Help: "Uploads refused by policy",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(
		m.RunsTotal,
		m.StageDuration,
		m.StageFailuresTotal,
		m.CacheHitsTotal,
		m.UploadsRejected,
	)
	return m
}

// ObserveStage records how long a stage took and whether it halted the run.
// Safe to call on a nil receiver.
func (m *Metrics) ObserveStage(stage string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if failed {
		m.StageFailuresTotal.WithLabelValues(stage).Inc()
	}
}

// ObserveRun counts a finished run. Safe to call on a nil receiver.
func (m *Metrics) ObserveRun(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
