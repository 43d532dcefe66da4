package cache

import (
	"container/list"
	"sync"
	"time"
)

// Stats is a snapshot of cache counters. Counters are cumulative since
// construction (or the last Clear); Size and MaxSize describe the store.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
}

// EntryInfo describes a live cache entry for introspection.
type EntryInfo struct {
	CreatedAt time.Time
	TTL       time.Duration
	HitCount  uint64
}

type entry[V any] struct {
	key       string
	value     V
	createdAt time.Time
	ttl       time.Duration
	hitCount  uint64
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Cache is a bounded in-memory key/value store with per-entry TTL and LRU
// eviction. Expiry is lazy: an entry past its TTL is treated as absent on
// the next read and removed then. All operations are safe for concurrent
// use; the store is designed to be a process-wide singleton shared across
// requests, but tests may construct isolated instances.
type Cache[V any] struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	evictList  *list.List
	maxEntries int
	defaultTTL time.Duration

	hits    uint64
	misses  uint64
	sets    uint64
	deletes uint64
}

// New creates a cache bounded to maxEntries with the given default TTL.
func New[V any](maxEntries int, defaultTTL time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Cache[V]{
		items:      make(map[string]*list.Element),
		evictList:  list.New(),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value. Returns the value and true on a live entry, the
// zero value and false otherwise. A hit moves the entry to the front of
// the LRU order; an expired entry is removed and counted as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		cacheMisses.Inc()
		var zero V
		return zero, false
	}

	e := el.Value.(*entry[V])
	if e.expired(time.Now()) {
		c.removeLocked(el)
		c.misses++
		cacheMisses.Inc()
		cacheExpirations.Inc()
		var zero V
		return zero, false
	}

	c.evictList.MoveToFront(el)
	e.hitCount++
	c.hits++
	cacheHits.Inc()
	return e.value, true
}

// Set stores a value under the default TTL, overwriting any existing entry.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL, overwriting any existing
// entry. A non-positive TTL falls back to the default. May evict the
// least-recently-used entry when capacity is exceeded.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++
	cacheSets.Inc()

	now := time.Now()
	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)
		e := el.Value.(*entry[V])
		e.value = value
		e.createdAt = now
		e.ttl = ttl
		e.hitCount = 0
		return
	}

	el := c.evictList.PushFront(&entry[V]{
		key:       key,
		value:     value,
		createdAt: now,
		ttl:       ttl,
	})
	c.items[key] = el

	for c.evictList.Len() > c.maxEntries {
		c.evictOldestLocked()
	}
}

// Has reports whether a live entry exists for key. It applies the same
// expiry check as Get but touches neither the hit/miss counters nor the
// LRU order: it is a presence probe, not a read.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	if el.Value.(*entry[V]).expired(time.Now()) {
		c.removeLocked(el)
		cacheExpirations.Inc()
		return false
	}
	return true
}

// Delete removes an entry. Returns true and increments the delete counter
// only if an entry was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeLocked(el)
	c.deletes++
	cacheDeletes.Inc()
	return true
}

// Clear empties the store and resets all counters, cumulative ones
// included. It is the "start fresh" operation for dashboards.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
	c.hits, c.misses, c.sets, c.deletes = 0, 0, 0, 0
}

// GetOrSet returns the cached value for key if a live entry exists,
// without invoking factory. Otherwise it invokes factory exactly once,
// stores the result under the default TTL on success, and returns it.
// A factory error propagates to the caller and nothing is cached, so a
// later call retries the factory.
//
// Known limitation: concurrent misses for the same key each invoke the
// factory independently (no single-flight coalescing); the last Set wins.
func (c *Cache[V]) GetOrSet(key string, factory func() (V, error)) (V, error) {
	return c.GetOrSetWithTTL(key, factory, c.defaultTTL)
}

// GetOrSetWithTTL is GetOrSet with an explicit TTL for the stored value.
func (c *Cache[V]) GetOrSetWithTTL(key string, factory func() (V, error), ttl time.Duration) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}

	c.SetWithTTL(key, v, ttl)
	return v, nil
}

// Len returns the number of physically resident entries, expired ones
// included until their lazy removal.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Sets:    c.sets,
		Deletes: c.deletes,
		Size:    len(c.items),
		MaxSize: c.maxEntries,
	}
}

// HitRatio returns hits/(hits+misses), or 0 with no traffic.
func (c *Cache[V]) HitRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Info returns introspection data for a live entry without touching
// counters or LRU order.
func (c *Cache[V]) Info(key string) (EntryInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return EntryInfo{}, false
	}
	e := el.Value.(*entry[V])
	if e.expired(time.Now()) {
		return EntryInfo{}, false
	}
	return EntryInfo{CreatedAt: e.createdAt, TTL: e.ttl, HitCount: e.hitCount}, true
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(c.items, e.key)
	c.evictList.Remove(el)
}

func (c *Cache[V]) evictOldestLocked() {
	el := c.evictList.Back()
	if el == nil {
		return
	}
	c.removeLocked(el)
	cacheEvictions.Inc()
}
