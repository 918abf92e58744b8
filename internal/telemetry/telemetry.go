// Package telemetry exposes Prometheus collectors for the copyvio engine.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	copyvioSourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copyvio_sources_total",
			Help: "Total number of candidate sources handled, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	copyvioFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copyvio_fetches_total",
			Help: "Total number of source fetches, labeled by result.",
		},
		[]string{"result"},
	)

	copyvioFetchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copyvio_fetch_duration_seconds",
			Help:    "Histogram of source fetch latencies.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	copyvioChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copyvio_checks_total",
			Help: "Total number of similarity checks started.",
		},
	)

	copyvioActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copyvio_active_workers",
			Help: "Number of worker goroutines currently running.",
		},
	)

	copyvioRateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copyvio_rate_limit_delay_seconds",
			Help:    "Histogram of per-domain rate limit wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"domain"},
	)
)

// CheckStarted records a new similarity check.
func CheckStarted() {
	copyvioChecksTotal.Inc()
}

// SourceCompleted records a source that finished with a comparison result.
func SourceCompleted() {
	copyvioSourcesTotal.WithLabelValues("completed").Inc()
}

// SourceCancelled records a source cancelled by an early finish.
func SourceCancelled() {
	copyvioSourcesTotal.WithLabelValues("cancelled").Inc()
}

// SourceSkipped records a source rejected by the exclusion predicate.
func SourceSkipped() {
	copyvioSourcesTotal.WithLabelValues("skipped").Inc()
}

// ObserveFetch records one fetch attempt and its duration.
func ObserveFetch(ok bool, d time.Duration) {
	result := "no_text"
	if ok {
		result = "text"
	}
	copyvioFetchesTotal.WithLabelValues(result).Inc()
	copyvioFetchDurationSeconds.Observe(d.Seconds())
}

// WorkerStarted increments the active worker gauge.
func WorkerStarted() {
	copyvioActiveWorkers.Inc()
}

// WorkerStopped decrements the active worker gauge.
func WorkerStopped() {
	copyvioActiveWorkers.Dec()
}

// ObserveRateLimitDelay records time spent waiting on a domain's limiter.
func ObserveRateLimitDelay(domain string, d time.Duration) {
	copyvioRateLimitDelaySeconds.WithLabelValues(domain).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
