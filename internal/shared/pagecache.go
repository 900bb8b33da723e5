// Package shared implements Shared Resources (spec.md C5): the
// cross-tab page cache, connection pool, download manager, and shared
// cookie jar, plus on-disk persistence for cookies.
package shared

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/httptim/rednet-core/internal/cache"
)

// PageCacheEntry is one cached page (spec.md §3).
type PageCacheEntry struct {
	URL         string
	Content     []byte
	ContentType string
	CachedAt    time.Time
	Size        int
}

// PageCache is the shared, byte-budgeted page cache. It wraps the
// generic TTL+LRU cache bounded by both entry count and total bytes,
// matching spec.md §4.5: "ensures currentSize + new <= maxSize by
// evicting oldest entries."
type PageCache struct {
	store *cache.TTLCache[string, PageCacheEntry]
	ttl   time.Duration
}

// NewPageCache creates a page cache bounded by maxBytes with the given TTL.
func NewPageCache(maxBytes int, ttl time.Duration) *PageCache {
	// Entry count is generously bounded; the byte budget is the
	// meaningful constraint for the page cache (spec.md's maxSize).
	return &PageCache{store: cache.New[string, PageCacheEntry](1_000_000, maxBytes), ttl: ttl}
}

// Get returns the cached page for url, if present and unexpired.
func (c *PageCache) Get(url string) (PageCacheEntry, bool) {
	return c.store.Get(url)
}

// Set stores content under url, evicting oldest entries until the
// byte budget is satisfied.
func (c *PageCache) Set(url string, content []byte, contentType string, now time.Time) {
	entry := PageCacheEntry{URL: url, Content: content, ContentType: contentType, CachedAt: now, Size: len(content)}
	c.store.Set(url, entry, c.ttl, len(content))
}

// Clear resets the cache and its counters.
func (c *PageCache) Clear() {
	c.store.Clear()
}

// Stats exposes hit/miss/eviction counters for admin introspection.
func (c *PageCache) Stats() cache.Stats {
	return c.store.Stats()
}

// StatsString renders current byte usage in human-readable form (e.g.
// "3.2 MB") for admin dashboards and log lines.
func (c *PageCache) StatsString() string {
	s := c.store.Stats()
	return humanize.Bytes(uint64(s.TotalBytes))
}
