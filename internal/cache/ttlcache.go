// Package cache provides a generic, thread-safe TTL+LRU cache shared by
// every component in RedNet Core that needs bounded, time-limited storage:
// the DNS resolution cache, the shared page cache, and the search result
// cache all wrap this single implementation instead of hand-rolling their
// own eviction logic.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry holds a cached value with expiration and LRU tracking.
type entry[V any] struct {
	value     V
	cachedAt  time.Time
	expiresAt time.Time
	size      int
	elem      *list.Element
}

// TTLCache is a thread-safe cache bounded by both an entry count and,
// optionally, a total byte size. Eviction order is oldest-expires-first,
// then least-recently-used, matching spec.md's DNS cache and page cache
// invariants (§3): "capacity-bounded; oldest expires-first eviction, then
// LRU on resolved time."
type TTLCache[K comparable, V any] struct {
	mu sync.Mutex

	maxEntries int
	maxBytes   int // 0 means unbounded by size

	lru  *list.List
	data map[K]*entry[V]

	totalBytes int
	hits       int
	misses     int
	evictions  int
}

// New creates a cache bounded by maxEntries (must be >= 1) and, optionally,
// maxBytes (0 disables the byte-size bound — used by caches like the DNS
// cache that are bounded purely by entry count).
func New[K comparable, V any](maxEntries, maxBytes int) *TTLCache[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &TTLCache[K, V]{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		lru:        list.New(),
		data:       map[K]*entry[V]{},
	}
}

// Get returns the cached value for key. Expired entries are evicted on
// access and reported as a miss, satisfying the "Cache TTL" invariant in
// spec.md §8: "if the entry's expiresAt < t, get returns miss and removes
// it."
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if !e.expiresAt.After(now) {
		c.removeLocked(key, e)
		c.misses++
		return zero, false
	}

	c.lru.MoveToBack(e.elem)
	c.hits++
	return e.value, true
}

// Peek returns the cached value without affecting LRU order or hit/miss
// counters. Still honors TTL expiry.
func (c *TTLCache[K, V]) Peek(key K) (V, bool) {
	var zero V
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok || !e.expiresAt.After(now) {
		return zero, false
	}
	return e.value, true
}

// Set stores val under key with the given TTL and byte size (size is
// ignored when the cache has no byte bound). Inserting over either bound
// evicts oldest-expires-first, then LRU, until the new entry fits —
// matching the page cache invariant in spec.md §3 ("eviction: oldest-first
// until fits").
func (c *TTLCache[K, V]) Set(key K, val V, ttl time.Duration, size int) {
	if ttl <= 0 {
		return
	}
	now := time.Now()
	expires := now.Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.data[key]; ok {
		c.totalBytes -= existing.size
		existing.value = val
		existing.cachedAt = now
		existing.expiresAt = expires
		existing.size = size
		c.totalBytes += size
		c.lru.MoveToBack(existing.elem)
		c.evictToFitLocked()
		return
	}

	e := &entry[V]{value: val, cachedAt: now, expiresAt: expires, size: size}
	e.elem = c.lru.PushBack(key)
	c.data[key] = e
	c.totalBytes += size
	c.evictToFitLocked()
}

// Delete removes key unconditionally.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.data[key]; ok {
		c.removeLocked(key, e)
	}
}

// Clear removes all entries and resets counters.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Init()
	c.data = map[K]*entry[V]{}
	c.totalBytes = 0
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Len returns the current number of live (not necessarily unexpired)
// entries.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Snapshot returns every unexpired entry keyed by K, for admin
// introspection. It does not affect LRU order or hit/miss counters.
func (c *TTLCache[K, V]) Snapshot() map[K]V {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[K]V, len(c.data))
	for k, e := range c.data {
		if e.expiresAt.After(now) {
			out[k] = e.value
		}
	}
	return out
}

// Stats reports hit/miss/eviction counters and current byte usage.
type Stats struct {
	Hits       int
	Misses     int
	Evictions  int
	Entries    int
	TotalBytes int
}

func (c *TTLCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		Entries:    len(c.data),
		TotalBytes: c.totalBytes,
	}
}

// removeLocked must be called with c.mu held.
func (c *TTLCache[K, V]) removeLocked(key K, e *entry[V]) {
	c.lru.Remove(e.elem)
	delete(c.data, key)
	c.totalBytes -= e.size
}

// evictToFitLocked evicts expired entries first, then the oldest-used
// entries, until the cache is within both bounds. Must be called with
// c.mu held.
func (c *TTLCache[K, V]) evictToFitLocked() {
	now := time.Now()

	// Pass 1: drop anything already expired, regardless of bounds.
	for el := c.lru.Front(); el != nil; {
		next := el.Next()
		k := el.Value.(K)
		e := c.data[k]
		if e != nil && !e.expiresAt.After(now) {
			c.removeLocked(k, e)
			c.evictions++
		}
		el = next
	}

	// Pass 2: LRU eviction until within bounds.
	for c.overCapacityLocked() {
		front := c.lru.Front()
		if front == nil {
			break
		}
		k := front.Value.(K)
		e := c.data[k]
		if e == nil {
			c.lru.Remove(front)
			continue
		}
		c.removeLocked(k, e)
		c.evictions++
	}
}

func (c *TTLCache[K, V]) overCapacityLocked() bool {
	if len(c.data) > c.maxEntries {
		return true
	}
	if c.maxBytes > 0 && c.totalBytes > c.maxBytes {
		return true
	}
	return false
}
