// Package metrics exposes Prometheus collectors for the snapshot service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	serpSnapshotsTotal          *prometheus.CounterVec
	serpCacheEventsTotal        *prometheus.CounterVec
	serpProviderDurationSeconds *prometheus.HistogramVec
	serpBatchPairs              prometheus.Histogram
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		serpSnapshotsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serp_snapshots_total",
				Help: "Total snapshot retrievals, labeled by provider and status.",
			},
			[]string{"provider", "status"},
		)

		serpCacheEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serp_cache_events_total",
				Help: "Total cache lookups, labeled by result (hit or miss).",
			},
			[]string{"result"},
		)

		serpProviderDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "serp_provider_duration_seconds",
				Help:    "Histogram of per-pair provider latencies, labeled by provider.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 35},
			},
			[]string{"provider"},
		)

		serpBatchPairs = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "serp_batch_pairs",
				Help:    "Histogram of work-pair counts per batch request.",
				Buckets: []float64{1, 2, 4, 6, 8, 10},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 40},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSnapshot increments the snapshot counter and records provider latency.
func ObserveSnapshot(provider, status string, duration time.Duration) {
	serpSnapshotsTotal.WithLabelValues(provider, status).Inc()
	serpProviderDurationSeconds.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveCacheLookup increments the cache counter for the given result.
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	serpCacheEventsTotal.WithLabelValues(result).Inc()
}

// ObserveBatch records the pair count of a batch request.
func ObserveBatch(pairs int) {
	serpBatchPairs.Observe(float64(pairs))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
