// Package metrics defines the Prometheus metric collectors for the
// coordinator and worker and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RequestTimeoutsTotal prometheus.Counter

	TasksDispatchedTotal *prometheus.CounterVec
	TasksFailedTotal     *prometheus.CounterVec
	DispatchDuration     prometheus.Histogram

	PartialsMergedTotal     prometheus.Counter
	MergeDecodeErrorsTotal  prometheus.Counter
	MergeDuration           prometheus.Histogram

	SearchDuration   prometheus.Histogram
	SearchZeroResult prometheus.Counter

	IndexTermsTotal   prometheus.Gauge
	DocsPendingTotal  prometheus.Gauge
	WorkerQueueLength *prometheus.GaugeVec
	HeartbeatAge      *prometheus.GaugeVec

	CircuitBreakerState *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RequestTimeoutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "request_timeouts_total",
				Help: "Total requests that hit the server-side request timeout.",
			},
		),
		TasksDispatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_dispatched_total",
				Help: "Total document tasks dispatched, by chosen worker id.",
			},
			[]string{"worker_id"},
		),
		TasksFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_failed_total",
				Help: "Total dispatch failures by reason.",
			},
			[]string{"reason"},
		),
		DispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dispatch_duration_seconds",
				Help:    "Time to select a worker and enqueue a task.",
				Buckets: prometheus.DefBuckets,
			},
		),
		PartialsMergedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "partials_merged_total",
				Help: "Total partial index results merged into the global index.",
			},
		),
		MergeDecodeErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "merge_decode_errors_total",
				Help: "Total partial index results dropped due to decode failure.",
			},
		),
		MergeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "merge_duration_seconds",
				Help:    "Time to merge one partial index result.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_duration_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		SearchZeroResult: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "search_zero_result_total",
				Help: "Total searches that returned no documents.",
			},
		),
		IndexTermsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_terms_total",
				Help: "Number of distinct terms currently in the global index.",
			},
		),
		DocsPendingTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docs_pending_total",
				Help: "Number of dispatched documents awaiting a merged partial result.",
			},
		),
		WorkerQueueLength: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "worker_queue_length",
				Help: "Observed task queue length per worker.",
			},
			[]string{"worker_id"},
		),
		HeartbeatAge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "heartbeat_age_seconds",
				Help: "Seconds since a worker's heartbeat key was last refreshed.",
			},
			[]string{"worker_id"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RequestTimeoutsTotal,
		m.TasksDispatchedTotal,
		m.TasksFailedTotal,
		m.DispatchDuration,
		m.PartialsMergedTotal,
		m.MergeDecodeErrorsTotal,
		m.MergeDuration,
		m.SearchDuration,
		m.SearchZeroResult,
		m.IndexTermsTotal,
		m.DocsPendingTotal,
		m.WorkerQueueLength,
		m.HeartbeatAge,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
