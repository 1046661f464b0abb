// Package observability provides production-grade observability infrastructure
// including structured logging and Prometheus metrics.
//
// This package centralizes observability concerns to enable:
//   - Structured logging with context propagation
//   - Prometheus metrics for monitoring the fetch/filter pipeline and cache
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//
// Example usage:
//
//	import (
//	    "catchup-feed/internal/observability/logging"
//	    "catchup-feed/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.RecordEndpointRequest("daily-digest", "ok", elapsed)
//	}
package observability
