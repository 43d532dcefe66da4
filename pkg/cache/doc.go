// Package cache provides the in-memory application cache for the
// storefront GraphQL access layer.
//
// The cache is a bounded LRU store with independent per-entry TTLs:
//
// - Lazy expiry: entries past their TTL read as absent and are removed then
// - LRU eviction once capacity is exceeded
// - Hit/miss/set/delete statistics plus a hit-ratio accessor
// - GetOrSet as the primary integration point for service-layer fetches
// - Deterministic, collision-resistant derived keys shared by all callers
// - Prometheus counters for observability
//
// # Basic Usage
//
//	// One process-wide cache, injected where needed
//	store := cache.New[json.RawMessage](500, 5*time.Minute)
//
//	key := cache.ProductKey("aeropress-go")
//	data, err := store.GetOrSet(key, func() (json.RawMessage, error) {
//		return fetchProduct(ctx, "aeropress-go")
//	})
//
// A factory error propagates uncached, so the next call retries. There is
// no single-flight coalescing: two concurrent misses for the same key both
// invoke their factory and the last store wins.
//
// # Key Derivation
//
//	cache.ProductKey("slug")                  // product:slug
//	cache.SearchKey(map[string]any{...})      // search:results:<hash>
//	cache.OperationKey("GetNavigation", nil)  // operation:GetNavigation:empty
//
// Parameter sets are serialized canonically (sorted keys) before hashing,
// so key derivation is stable under map iteration order.
//
// # Metrics
//
// The package exports Prometheus counters:
//
//   - storefront_cache_hits_total
//   - storefront_cache_misses_total
//   - storefront_cache_sets_total
//   - storefront_cache_deletes_total
//   - storefront_cache_evictions_total
//   - storefront_cache_expirations_total
//
// These aggregate across all Cache instances in the process; Stats() is
// the instance-local view.
package cache
