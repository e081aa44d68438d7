package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for Sequoia request operations.
var (
	sequoiaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequoia_requests_total",
		Help: "Total Sequoia requests by resource and status",
	}, []string{"resource", "status"})

	sequoiaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sequoia_request_duration_seconds",
		Help:    "Sequoia request duration in seconds by resource",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"resource"})

	sequoiaErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequoia_errors_total",
		Help: "Total Sequoia errors by class",
	}, []string{"class"})

	sequoiaRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequoia_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	sequoiaRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sequoia_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	sequoiaRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequoia_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)
