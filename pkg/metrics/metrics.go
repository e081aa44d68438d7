// Package metrics provides the centralized Prometheus registry reference
// for the Sequoia client. Metrics are defined in the packages that emit
// them to maintain modularity; this package documents the full set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/transport):
//   - sequoia_requests_total{resource, status} (Counter): Total requests by resource and HTTP status
//   - sequoia_request_duration_seconds{resource} (Histogram): Request duration by resource
//   - sequoia_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/transport):
//   - sequoia_retries_total{error_class} (Counter): Retry attempts by error class
//   - sequoia_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - sequoia_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(sequoia_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(sequoia_request_duration_seconds_bucket[5m]))
//
//   # Retry Pressure
//   rate(sequoia_retries_total[5m])
