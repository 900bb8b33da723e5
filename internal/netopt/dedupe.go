// Package netopt implements the Network Optimizer (spec.md C2): request
// deduplication, message batching, dictionary compression, and
// delta-sync, all layered transparently atop a transport.Bus.
package netopt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// RequestKey identifies a request for deduplication purposes: its
// hash is computed over type|url|method|params (spec.md §4.2).
type RequestKey struct {
	Type   string
	URL    string
	Method string
	Params string
}

// Hash returns the deduplication hash for k.
func (k RequestKey) Hash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", k.Type, k.URL, k.Method, k.Params)))
	return hex.EncodeToString(sum[:])
}

// Deduper drops duplicate requests seen within dedupeWindow. Only
// request-shaped messages participate; responses and other message
// types are never deduplicated (spec.md §4.2).
type Deduper struct {
	mu     sync.Mutex
	window time.Duration
	maxCap int
	seen   map[string]time.Time
}

// NewDeduper creates a deduper with the given window and a bound on
// how many hashes it retains (maxDedupeCache, spec.md §6).
func NewDeduper(window time.Duration, maxCap int) *Deduper {
	return &Deduper{window: window, maxCap: maxCap, seen: map[string]time.Time{}}
}

// Admit returns true if this request hash has not been seen within the
// dedupe window, recording it as seen if so. Duplicate calls within the
// window return false.
func (d *Deduper) Admit(key RequestKey, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.evictExpiredLocked(now)

	hash := key.Hash()
	if seenAt, ok := d.seen[hash]; ok && now.Sub(seenAt) < d.window {
		return false
	}
	if len(d.seen) >= d.maxCap {
		d.evictOldestLocked()
	}
	d.seen[hash] = now
	return true
}

func (d *Deduper) evictExpiredLocked(now time.Time) {
	for h, t := range d.seen {
		if now.Sub(t) >= d.window {
			delete(d.seen, h)
		}
	}
}

func (d *Deduper) evictOldestLocked() {
	var oldestHash string
	var oldestTime time.Time
	first := true
	for h, t := range d.seen {
		if first || t.Before(oldestTime) {
			oldestHash, oldestTime, first = h, t, false
		}
	}
	if !first {
		delete(d.seen, oldestHash)
	}
}

// Len reports how many hashes are currently retained.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
