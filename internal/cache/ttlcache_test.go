package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClampsMinEntries(t *testing.T) {
	c := New[string, string](0, 0)
	require.NotNil(t, c)
	assert.Equal(t, 1, c.maxEntries)

	c = New[string, string](-5, 0)
	assert.Equal(t, 1, c.maxEntries)
}

func TestSetGetRoundTrip(t *testing.T) {
	c := New[string, string](10, 0)

	c.Set("key1", "value1", time.Hour, 0)
	val, found := c.Get("key1")
	require.True(t, found)
	assert.Equal(t, "value1", val)

	_, found = c.Get("nonexistent")
	assert.False(t, found)
}

func TestExpiredEntryIsMissAndRemoved(t *testing.T) {
	c := New[string, string](10, 0)

	c.Set("key1", "value1", time.Millisecond, 0)
	time.Sleep(5 * time.Millisecond)

	_, found := c.Get("key1")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len(), "expired entry should be removed on access")
}

func TestZeroOrNegativeTTLNotStored(t *testing.T) {
	c := New[string, string](10, 0)

	c.Set("key1", "value1", 0, 0)
	_, found := c.Get("key1")
	assert.False(t, found)

	c.Set("key2", "value2", -time.Second, 0)
	_, found = c.Get("key2")
	assert.False(t, found)
}

func TestLRUEvictionOnEntryCap(t *testing.T) {
	c := New[string, string](3, 0)

	c.Set("key1", "value1", time.Hour, 0)
	c.Set("key2", "value2", time.Hour, 0)
	c.Set("key3", "value3", time.Hour, 0)

	// Touch key1 so it is no longer the least-recently-used entry.
	c.Get("key1")

	c.Set("key4", "value4", time.Hour, 0)

	_, found := c.Get("key2")
	assert.False(t, found, "key2 should have been evicted as least recently used")
	_, found = c.Get("key1")
	assert.True(t, found)
	_, found = c.Get("key4")
	assert.True(t, found)
}

func TestByteBoundEvictsOldestFirst(t *testing.T) {
	c := New[string, string](100, 10)

	c.Set("a", "aaaaa", time.Hour, 5) // 5 bytes
	c.Set("b", "bbbbb", time.Hour, 5) // total 10, exactly at cap
	assert.Equal(t, 2, c.Len())

	// Inserting any more bytes must evict the oldest entry to fit.
	c.Set("c", "ccccc", time.Hour, 5)
	_, found := c.Get("a")
	assert.False(t, found, "oldest entry should be evicted once the byte cap is exceeded")
	_, found = c.Get("b")
	assert.True(t, found)
	_, found = c.Get("c")
	assert.True(t, found)
}

func TestStatsTracksHitsMissesEvictions(t *testing.T) {
	c := New[string, string](1, 0)

	c.Set("a", "1", time.Hour, 0)
	c.Get("a")        // hit
	c.Get("missing")  // miss
	c.Set("b", "2", time.Hour, 0) // evicts "a"

	stats := c.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Evictions)
	assert.Equal(t, 1, stats.Entries)
}

func TestDeleteAndClear(t *testing.T) {
	c := New[string, string](10, 0)
	c.Set("a", "1", time.Hour, 0)
	c.Set("b", "2", time.Hour, 0)

	c.Delete("a")
	_, found := c.Get("a")
	assert.False(t, found)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	stats := c.Stats()
	assert.Equal(t, 0, stats.Hits)
}

func TestSnapshotExcludesExpiredEntriesAndIgnoresHitCounters(t *testing.T) {
	c := New[string, string](10, 0)
	c.Set("fresh", "1", time.Hour, 0)
	c.Set("stale", "2", time.Millisecond, 0)
	time.Sleep(5 * time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, map[string]string{"fresh": "1"}, snap)
	assert.Equal(t, 0, c.Stats().Hits, "snapshot must not affect hit counters")
}
