// Package metrics provides the Prometheus registry and handler for pagedlist.
// All metrics are defined in their respective packages (jobexecutor, client,
// cache, ratelimit) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by pagedlist.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry read by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Executor Metrics (pkg/jobexecutor):
//   - pagedlist_jobs_enqueued_total{executor, kind} (Counter): Jobs queued by kind (initial, following)
//   - pagedlist_jobs_completed_total{executor, kind, result} (Counter): Finished jobs by result (success, failure)
//   - pagedlist_job_duration_seconds{executor, kind} (Histogram): Time from job start to completion
//   - pagedlist_queue_depth{executor} (Gauge): Jobs waiting to be started
//   - pagedlist_failed_jobs{executor} (Gauge): Jobs in the failed-job store
//   - pagedlist_retries_total{executor} (Counter): Failed jobs moved back to the queue
//
// Rate Limit Metrics (pkg/ratelimit):
//   - pagedlist_upstream_requests_remaining (Gauge): Requests remaining in the upstream window
//   - pagedlist_rate_limit_blocks_total (Counter): Requests blocked in the critical range
//   - pagedlist_rate_limit_throttles_total (Counter): Requests delayed in the warning range
//
// Cache Metrics (pkg/cache):
//   - pagedlist_cache_hits_total{endpoint} (Counter): Page cache hits
//   - pagedlist_cache_misses_total{endpoint} (Counter): Page cache misses, including expired entries
//   - pagedlist_cache_stored_bytes_total (Counter): Bytes of page entries written
//   - pagedlist_cache_invalidated_pages_total (Counter): Pages removed by list invalidation
//   - pagedlist_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - pagedlist_upstream_requests_total{endpoint, status} (Counter): Requests by endpoint and outcome
//   - pagedlist_upstream_request_duration_seconds{endpoint} (Histogram): FetchPage duration by endpoint
//   - pagedlist_upstream_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Retry Metrics (pkg/client):
//   - pagedlist_upstream_retries_total{error_class} (Counter): Retry attempts by error class
//   - pagedlist_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - pagedlist_upstream_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(pagedlist_cache_hits_total[5m])) /
//	(sum(rate(pagedlist_cache_hits_total[5m])) + sum(rate(pagedlist_cache_misses_total[5m])))
//
//	# Failed page jobs waiting for a retry
//	pagedlist_failed_jobs > 0
//
//	# Job failure ratio
//	sum(rate(pagedlist_jobs_completed_total{result="failure"}[5m])) /
//	sum(rate(pagedlist_jobs_completed_total[5m]))
//
//	# P95 page load latency
//	histogram_quantile(0.95, rate(pagedlist_job_duration_seconds_bucket[5m]))
//
//	# Upstream budget
//	pagedlist_upstream_requests_remaining < 20
