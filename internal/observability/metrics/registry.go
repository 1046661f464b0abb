// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance.
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes.
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes.
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// HTTPRequestsInFlight tracks the current number of HTTP requests being served.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// Pipeline metrics track feed assembly: source resolution, filter execution,
// and endpoint serving as a whole.
var (
	// EndpointRequestDuration measures the end-to-end latency of serving a
	// configured endpoint, from source resolution through serialization.
	EndpointRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "endpoint_request_duration_seconds",
			Help:    "Time to resolve, filter, and serialize an endpoint response",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"endpoint"},
	)

	// EndpointRequestsTotal counts endpoint responses by outcome.
	EndpointRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "endpoint_requests_total",
			Help: "Total number of endpoint requests by result",
		},
		[]string{"endpoint", "result"}, // result: ok, source_error, filter_error
	)

	// FilterDuration measures how long a single filter invocation takes,
	// whether post-wise or feed-wise.
	FilterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filter_duration_seconds",
			Help:    "Time taken to run a single filter over a feed or post",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"filter"},
	)

	// FilterErrorsTotal counts filter invocations that returned an error.
	FilterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_errors_total",
			Help: "Total number of filter invocations that returned an error",
		},
		[]string{"filter"},
	)

	// SourceFetchDuration measures how long resolving a single source
	// (fetch + parse) takes.
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a single source",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"result"}, // result: ok, error
	)
)

// Fetch cache metrics track the content-addressed HTTP cache.
var (
	// CacheLookupsTotal counts fetch cache lookups by outcome.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_cache_lookups_total",
			Help: "Total number of fetch cache lookups by outcome",
		},
		[]string{"outcome"}, // outcome: hit, miss, expired
	)

	// CacheEvictionsTotal counts entries evicted from the fetch cache.
	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_cache_evictions_total",
			Help: "Total number of fetch cache evictions by reason",
		},
		[]string{"reason"}, // reason: count_limit, byte_limit, ttl
	)

	// CacheEntries tracks the current number of fetch cache entries.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetch_cache_entries",
			Help: "Current number of entries held in the fetch cache",
		},
	)

	// CacheBytes tracks the current aggregate byte size of cached bodies.
	CacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetch_cache_bytes",
			Help: "Current aggregate byte size of cached response bodies",
		},
	)
)

// Script metrics track the embedded js filter's execution.
var (
	// ScriptExecutionsTotal counts js filter invocations by outcome.
	ScriptExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_executions_total",
			Help: "Total number of js filter executions by outcome",
		},
		[]string{"outcome"}, // outcome: ok, error, timeout
	)

	// ScriptExecutionDuration measures js filter execution wall time.
	ScriptExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "script_execution_duration_seconds",
			Help:    "Wall time spent executing a js filter script",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata.
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordEndpointRequest records the outcome of serving a configured endpoint.
func RecordEndpointRequest(endpoint, result string, duration time.Duration) {
	EndpointRequestsTotal.WithLabelValues(endpoint, result).Inc()
	EndpointRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordFilterRun records the duration and outcome of a single filter invocation.
func RecordFilterRun(filter string, duration time.Duration, err error) {
	FilterDuration.WithLabelValues(filter).Observe(duration.Seconds())
	if err != nil {
		FilterErrorsTotal.WithLabelValues(filter).Inc()
	}
}

// RecordSourceFetch records the duration and outcome of resolving one source.
func RecordSourceFetch(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SourceFetchDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordCacheLookup records a fetch cache lookup outcome.
func RecordCacheLookup(outcome string) {
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheEviction records a fetch cache eviction and its reason.
func RecordCacheEviction(reason string) {
	CacheEvictionsTotal.WithLabelValues(reason).Inc()
}

// SetCacheSize updates the current cache entry count and aggregate byte size.
func SetCacheSize(entries, bytes int) {
	CacheEntries.Set(float64(entries))
	CacheBytes.Set(float64(bytes))
}

// RecordScriptExecution records the outcome and duration of a js filter run.
func RecordScriptExecution(outcome string, duration time.Duration) {
	ScriptExecutionsTotal.WithLabelValues(outcome).Inc()
	ScriptExecutionDuration.Observe(duration.Seconds())
}
