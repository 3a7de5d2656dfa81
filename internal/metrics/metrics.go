// Package metrics holds the Prometheus collectors shared by the API and the
// worker. Collectors register on the default registry at init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subburn_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subburn_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subburn_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Job metrics
var (
	JobsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subburn_jobs_enqueued_total",
			Help: "Total number of render jobs pushed onto the queue",
		},
	)

	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subburn_jobs_processed_total",
			Help: "Total number of render jobs processed, by outcome and error code",
		},
		[]string{"outcome", "code"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subburn_job_duration_seconds",
			Help:    "Wall time of a render job from dequeue to completion",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subburn_jobs_in_flight",
			Help: "Number of render jobs currently being processed",
		},
	)

	RenderStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subburn_render_stage_duration_seconds",
			Help:    "Duration of each encoder stage",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"stage"},
	)

	RenderStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subburn_render_stage_failures_total",
			Help: "Total number of failed encoder stages",
		},
		[]string{"stage"},
	)
)

// Outcome labels for JobsProcessedTotal.
const (
	OutcomeDone   = "done"
	OutcomeFailed = "failed"
)

// ObserveStage records one encoder stage. Its signature matches the render
// pipeline observer hook.
func ObserveStage(stage string, elapsed time.Duration, err error) {
	if err != nil {
		RenderStageFailures.WithLabelValues(stage).Inc()
		return
	}
	RenderStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// ObserveJob records a finished job. code is empty on success.
func ObserveJob(elapsed time.Duration, code string) {
	outcome := OutcomeDone
	if code != "" {
		outcome = OutcomeFailed
	}
	JobsProcessedTotal.WithLabelValues(outcome, code).Inc()
	JobDuration.Observe(elapsed.Seconds())
}
