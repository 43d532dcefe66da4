package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counters mirror the per-instance Stats. They are process-wide
// aggregates: with several Cache instances (e.g. in tests) they sum across
// all of them, while Stats stays instance-local.
var (
	// cacheHits counts reads answered from a live entry.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// cacheMisses counts reads of absent or expired entries.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// cacheSets counts stores, overwrites included.
	cacheSets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_sets_total",
			Help: "Total number of cache sets",
		},
	)

	// cacheDeletes counts explicit deletions of present entries.
	cacheDeletes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_deletes_total",
			Help: "Total number of explicit cache deletions",
		},
	)

	// cacheEvictions counts LRU evictions under capacity pressure.
	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_evictions_total",
			Help: "Total number of LRU cache evictions",
		},
	)

	// cacheExpirations counts entries removed lazily after TTL expiry.
	cacheExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_expirations_total",
			Help: "Total number of entries removed after TTL expiry",
		},
	)
)
