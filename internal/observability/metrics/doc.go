// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Pipeline metrics (endpoint requests, filter runs, source fetches)
//   - Fetch cache metrics (hits, misses, evictions, size)
//   - Script metrics for the embedded js filter
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "catchup-feed/internal/observability/metrics"
//
//	func serveEndpoint(name string) {
//	    start := time.Now()
//	    // ... resolve sources, run filters ...
//	    metrics.RecordEndpointRequest(name, "ok", time.Since(start))
//	}
package metrics
