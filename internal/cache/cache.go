// Package cache provides a cost-bounded LRU cache.
//
// The render scheduler keeps scaled display crops of cached tiles here so
// repainting an unchanged viewport at the same zoom skips resampling.
package cache

import "sync"

// Cache is a generic thread-safe LRU cache bounded by total cost.
// When an insertion pushes the total above the limit, least recently used
// entries are evicted until it fits again. An entry costing more than the
// limit is not stored.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*lruNode[K, V]
	lru     lruList[K, V]
	limit   int64
	total   int64
	cost    func(V) int64

	hits, misses, evictions uint64
}

// New creates a cache holding at most limit cost units. cost reports the
// cost of a value; nil counts every entry as 1. limit <= 0 means unlimited.
func New[K comparable, V any](limit int64, cost func(V) int64) *Cache[K, V] {
	if cost == nil {
		cost = func(V) int64 { return 1 }
	}
	return &Cache[K, V]{
		entries: make(map[K]*lruNode[K, V]),
		limit:   limit,
		cost:    cost,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.lru.moveToFront(n)
	return n.value, true
}

// Set stores a value, replacing any previous value for key.
func (c *Cache[K, V]) Set(key K, value V) {
	cost := c.cost(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(old)
	}
	if c.limit > 0 && cost > c.limit {
		return
	}
	n := &lruNode[K, V]{key: key, value: value, cost: cost}
	c.entries[key] = n
	c.lru.pushFront(n)
	c.total += cost

	for c.limit > 0 && c.total > c.limit && c.lru.tail != nil {
		c.removeLocked(c.lru.tail)
		c.evictions++
	}
}

// Delete removes an entry. It reports whether the key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if ok {
		c.removeLocked(n)
	}
	return ok
}

// DeleteFunc removes every entry whose key satisfies del.
func (c *Cache[K, V]) DeleteFunc(del func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, n := range c.entries {
		if del(k) {
			c.removeLocked(n)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*lruNode[K, V])
	c.lru = lruList[K, V]{}
	c.total = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rate float64
	if total := c.hits + c.misses; total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Len:       len(c.entries),
		Cost:      c.total,
		Limit:     c.limit,
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   rate,
		Evictions: c.evictions,
	}
}

// removeLocked drops n. Caller must hold c.mu.
func (c *Cache[K, V]) removeLocked(n *lruNode[K, V]) {
	c.lru.unlink(n)
	delete(c.entries, n.key)
	c.total -= n.cost
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Cost is the summed cost of all entries.
	Cost int64
	// Limit is the cost limit, 0 for unlimited.
	Limit int64
	// Hits is the number of successful lookups.
	Hits uint64
	// Misses is the number of failed lookups.
	Misses uint64
	// HitRate is Hits / (Hits + Misses).
	HitRate float64
	// Evictions is the number of entries evicted for space.
	Evictions uint64
}
