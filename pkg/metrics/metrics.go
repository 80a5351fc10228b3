// Package metrics exposes the Prometheus metrics of the bigquery-rows
// packages. Metrics are defined where they are recorded (query, rest, cache)
// and registered on the default registerer via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Query Metrics (pkg/query):
//   - bq_queries_total{result} (Counter): submissions by result (ok, error, invalid)
//   - bq_pages_fetched_total (Counter): result pages received
//   - bq_rows_delivered_total (Counter): rows handed to callers
//
// Request Metrics (pkg/rest):
//   - bq_requests_total{method, status} (Counter): requests by API method and HTTP status
//   - bq_request_duration_seconds{method} (Histogram): call duration, retries included
//   - bq_errors_total{class} (Counter): errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/rest):
//   - bq_retries_total{error_class} (Counter)
//   - bq_retry_backoff_seconds{error_class} (Histogram)
//   - bq_retry_exhausted_total{error_class} (Counter)
//
// Cache Metrics (pkg/cache):
//   - bq_cache_hits_total{layer="redis"} (Counter)
//   - bq_cache_misses_total (Counter)
//   - bq_cache_size_bytes{layer="redis"} (Gauge): bytes written
//   - bq_cache_errors_total{operation} (Counter)
//
// Example Prometheus Queries:
//
//   # Rows per second
//   rate(bq_rows_delivered_total[5m])
//
//   # Average page size
//   rate(bq_rows_delivered_total[5m]) / rate(bq_pages_fetched_total[5m])
//
//   # Cache Hit Rate
//   sum(rate(bq_cache_hits_total[5m])) /
//   (sum(rate(bq_cache_hits_total[5m])) + sum(rate(bq_cache_misses_total[5m])))
//
//   # P95 getQueryResults latency
//   histogram_quantile(0.95, rate(bq_request_duration_seconds_bucket{method="getQueryResults"}[5m]))
