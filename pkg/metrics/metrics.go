// Package metrics provides the Prometheus registry and HTTP handler for the
// PulsePass client. All metrics are defined in their respective packages
// (pagination, client, cache, ratelimit) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Collector Metrics (pkg/pagination):
//   - pulsepass_collector_pages_total (Counter): Pages fetched by the paginated collector
//   - pulsepass_collector_page_failures_total (Counter): Page fetches that ended a collection early
//   - pulsepass_collections_total{outcome} (Counter): Collection runs by outcome (complete, partial, capped)
//   - pulsepass_collection_duration_seconds (Histogram): Duration of a full collection run
//   - pulsepass_collection_items (Histogram): Items aggregated per collection run
//
// Rate Limit Metrics (pkg/ratelimit):
//   - pulsepass_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - pulsepass_rate_limit_blocks_total (Counter): Requests blocked because the budget was exhausted
//   - pulsepass_rate_limit_throttles_total (Counter): Requests delayed in the warning band
//
// Cache Metrics (pkg/cache):
//   - pulsepass_cache_hits_total (Counter): Cache hits
//   - pulsepass_cache_misses_total (Counter): Cache misses
//   - pulsepass_cache_size_bytes (Gauge): Bytes written to the response cache
//   - pulsepass_cache_not_modified_total (Counter): 304 Not Modified responses served from cache
//   - pulsepass_cache_conditional_requests_total (Counter): Conditional requests sent
//   - pulsepass_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - pulsepass_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - pulsepass_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - pulsepass_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - pulsepass_retries_total{error_class} (Counter): Retry attempts by error class
//   - pulsepass_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - pulsepass_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Proxy Metrics (cmd/pulsepass):
//   - pulsepass_proxy_requests_total{route, code} (Counter): Proxy requests by route and status
//
// Example Prometheus Queries:
//
//   # Share of partial collections
//   sum(rate(pulsepass_collections_total{outcome!="complete"}[5m])) /
//   sum(rate(pulsepass_collections_total[5m]))
//
//   # Cache Hit Rate
//   sum(rate(pulsepass_cache_hits_total[5m])) /
//   (sum(rate(pulsepass_cache_hits_total[5m])) + sum(rate(pulsepass_cache_misses_total[5m])))
//
//   # Rate limit budget low
//   pulsepass_rate_limit_remaining < 10
//
//   # P95 Collection Duration
//   histogram_quantile(0.95, rate(pulsepass_collection_duration_seconds_bucket[5m]))
