package engine

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/httptim/rednet-core/internal/cache"
)

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Query carries the normalized pieces that make up a result-cache key
// (spec.md §4.11): "query|category|sort|limit".
type Query struct {
	Text     string
	Category string
	Sort     string
	Limit    int
	Offset   int
}

// CacheKey returns the normalized cache key for q.
func (q Query) CacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%d", q.Text, q.Category, q.Sort, q.Limit)
}

// ResultSet is what gets cached per query.
type ResultSet struct {
	Results []Result
	Total   int
}

func (r ResultSet) approxBytes() int {
	return len(r.Results)*64 + 32
}

// ResultCache wraps the generic TTL+LRU cache, bounding both entry count
// and aggregate byte size (spec.md §4.11).
type ResultCache struct {
	store *cache.TTLCache[string, ResultSet]
}

// NewResultCache creates a result cache bounded by maxEntries and
// maxMemoryBytes.
func NewResultCache(maxEntries, maxMemoryBytes int) *ResultCache {
	return &ResultCache{store: cache.New[string, ResultSet](maxEntries, maxMemoryBytes)}
}

// Get returns a cached result set for q's normalized key.
func (c *ResultCache) Get(q Query) (ResultSet, bool) {
	return c.store.Get(q.CacheKey())
}

// Set stores results under q's normalized key with the given TTL.
func (c *ResultCache) Set(q Query, results ResultSet, ttlSeconds int) {
	c.store.Set(q.CacheKey(), results, secondsToDuration(ttlSeconds), results.approxBytes())
}

// Stats exposes the raw hit/miss/eviction counters; StatsString gives
// the human-readable form for admin dashboards.
func (c *ResultCache) Stats() cache.Stats {
	return c.store.Stats()
}

// StatsString renders current cache memory usage in human-readable form.
func (c *ResultCache) StatsString() string {
	s := c.store.Stats()
	return humanize.Bytes(uint64(s.TotalBytes))
}
