package dnsname

import (
	"time"

	"github.com/httptim/rednet-core/internal/cache"
)

// CacheEntry mirrors the DNS cache entry data model in spec.md §3.
type CacheEntry struct {
	Domain     string
	OwnerID    int
	Kind       Kind
	Target     string
	ResolvedAt time.Time
	ExpiresAt  time.Time
}

// Cache wraps the generic TTL+LRU cache with DNS-specific defaults:
// entry-count bound only (no byte budget), default TTL 300s.
type Cache struct {
	store *cache.TTLCache[string, CacheEntry]
	ttl   time.Duration
}

// NewCache creates a DNS cache bounded by maxEntries with the given TTL.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{store: cache.New[string, CacheEntry](maxEntries, 0), ttl: ttl}
}

// Get returns the cached entry for domain, if present and unexpired.
func (c *Cache) Get(domain string) (CacheEntry, bool) {
	return c.store.Get(domain)
}

// Put inserts or refreshes domain's cache entry with the cache's TTL.
func (c *Cache) Put(domain string, ownerID int, kind Kind, target string, now time.Time) CacheEntry {
	entry := CacheEntry{
		Domain:     domain,
		OwnerID:    ownerID,
		Kind:       kind,
		Target:     target,
		ResolvedAt: now,
		ExpiresAt:  now.Add(c.ttl),
	}
	c.store.Set(domain, entry, c.ttl, 0)
	return entry
}

// Invalidate removes domain's entry, e.g. in response to a DNS_UPDATE.
func (c *Cache) Invalidate(domain string) {
	c.store.Delete(domain)
}

// Stats exposes hit/miss/eviction counters for admin introspection.
func (c *Cache) Stats() cache.Stats {
	return c.store.Stats()
}

// Entries returns every unexpired cache entry, for the admin API's
// dns/cache introspection endpoint.
func (c *Cache) Entries() []CacheEntry {
	snap := c.store.Snapshot()
	out := make([]CacheEntry, 0, len(snap))
	for _, e := range snap {
		out = append(out, e)
	}
	return out
}
