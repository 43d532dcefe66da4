// Package metrics provides the centralized Prometheus registry reference
// for the storefront GraphQL client. Metrics are defined in their
// respective packages (client, cache, breaker) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the storefront
// client. All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - storefront_graphql_requests_total{operation, status} (Counter): GraphQL operations by name and outcome
//   - storefront_graphql_request_duration_seconds{operation} (Histogram): Operation duration by name
//   - storefront_graphql_errors_total{kind} (Counter): Classified errors by kind
//
// Retry Metrics (pkg/client):
//   - storefront_retries_total{kind} (Counter): Retry attempts by error kind
//   - storefront_retry_backoff_seconds{kind} (Histogram): Backoff duration by error kind
//   - storefront_retry_exhausted_total{kind} (Counter): Calls that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - storefront_cache_hits_total (Counter): Reads answered from a live entry
//   - storefront_cache_misses_total (Counter): Reads of absent or expired entries
//   - storefront_cache_sets_total (Counter): Stores, overwrites included
//   - storefront_cache_deletes_total (Counter): Explicit deletions of present entries
//   - storefront_cache_evictions_total (Counter): LRU evictions under capacity pressure
//   - storefront_cache_expirations_total (Counter): Entries removed after TTL expiry
//
// Circuit Breaker Metrics (pkg/breaker):
//   - storefront_breaker_state_changes_total{from, to} (Counter): State transitions by edge
//   - storefront_breaker_rejections_total (Counter): Calls rejected by the open breaker
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(storefront_cache_hits_total[5m])) /
//   (sum(rate(storefront_cache_hits_total[5m])) + sum(rate(storefront_cache_misses_total[5m])))
//
//   # GraphQL Error Rate by Kind
//   rate(storefront_graphql_errors_total[5m])
//
//   # P95 Operation Latency
//   histogram_quantile(0.95, rate(storefront_graphql_request_duration_seconds_bucket[5m]))
//
//   # Breaker Open Transitions
//   increase(storefront_breaker_state_changes_total{to="open"}[15m])
