// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helpdesk_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GathererResults counts gatherer outcomes by origin (live, cache, default).
	GathererResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_gatherer_results_total",
			Help: "External data gatherer results by origin",
		},
		[]string{"gatherer", "origin"},
	)

	// CacheLookups counts cache reads by category and result (hit, miss, stale).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_cache_lookups_total",
			Help: "Time-expiring cache lookups",
		},
		[]string{"category", "result"},
	)

	// LLMDuration tracks language model call duration.
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helpdesk_llm_duration_seconds",
			Help:    "Language model call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"backend", "status"},
	)

	// GitHubRateRemaining reports the last seen X-RateLimit-Remaining value.
	GitHubRateRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "helpdesk_github_rate_limit_remaining",
			Help: "Last observed GitHub API rate limit remaining",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGatherer records the origin of one gatherer result.
func RecordGatherer(gatherer, origin string) {
	GathererResults.WithLabelValues(gatherer, origin).Inc()
}

// RecordCacheLookup records one cache read.
func RecordCacheLookup(category, result string) {
	CacheLookups.WithLabelValues(category, result).Inc()
}

// RecordLLM records one language model call.
func RecordLLM(backend, status string, duration float64) {
	LLMDuration.WithLabelValues(backend, status).Observe(duration)
}
