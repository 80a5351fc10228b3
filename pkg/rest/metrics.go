package rest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for BigQuery REST operations.
var (
	bqRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bq_requests_total",
		Help: "Total BigQuery API requests by method and status",
	}, []string{"method", "status"})

	bqRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bq_request_duration_seconds",
		Help:    "BigQuery API request duration in seconds by method, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 90},
	}, []string{"method"})

	bqErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bq_errors_total",
		Help: "Total BigQuery API errors by class",
	}, []string{"class"})

	bqRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bq_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	bqRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bq_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	bqRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bq_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)
