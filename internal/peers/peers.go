// Package peers maintains the directory of other nodes this node has
// observed on the broadcast network: their kind (server or client),
// trust level, and any active blacklist. It is the single owner of
// trust and blacklist state used by the DNS Resolver (spec.md C4) and
// consulted read-only by DNS Core (C3) for authenticity checks.
package peers

import (
	"sync"
	"time"
)

// Kind distinguishes peers whose votes count in dispute resolution
// from ordinary clients.
type Kind string

const (
	KindServer Kind = "server"
	KindClient Kind = "client"
)

// Peer is one entry in the directory.
type Peer struct {
	ID               int
	Kind             Kind
	Trust            float64
	BlacklistedUntil time.Time
}

// Blacklisted reports whether the peer is currently excluded from
// voting and disputes, at time now.
func (p Peer) Blacklisted(now time.Time) bool {
	return p.BlacklistedUntil.After(now)
}

// Directory is the single owner of peer trust and blacklist state
// (spec.md §5: "Trust and blacklist maps: single owner (Resolver);
// updated only on dispute resolution").
type Directory struct {
	mu           sync.RWMutex
	peers        map[int]*Peer
	initialTrust float64
	minTrust     float64
	decayRate    float64
	blacklistDur time.Duration
}

// New creates an empty directory with the resolver's trust parameters.
func New(initialTrust, minTrustLevel, trustDecayRate float64, blacklistDuration time.Duration) *Directory {
	return &Directory{
		peers:        map[int]*Peer{},
		initialTrust: initialTrust,
		minTrust:     minTrustLevel,
		decayRate:    trustDecayRate,
		blacklistDur: blacklistDuration,
	}
}

// Observe registers a peer the first time it is seen, defaulting its
// trust to initialTrust. It never overwrites an existing peer's kind
// or trust; use SetKind to update kind once known.
func (d *Directory) Observe(id int, kind Kind) *Peer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.peers[id]; ok {
		return p
	}
	p := &Peer{ID: id, Kind: kind, Trust: d.initialTrust}
	d.peers[id] = p
	return p
}

// Get returns the peer record for id, if known.
func (d *Directory) Get(id int) (Peer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.peers[id]
	if !ok {
		return Peer{}, false
	}
	return *p, true
}

// SetKind updates a peer's observed kind, observing it first if unknown.
func (d *Directory) SetKind(id int, kind Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.peers[id]
	if !ok {
		p = &Peer{ID: id, Trust: d.initialTrust}
		d.peers[id] = p
	}
	p.Kind = kind
}

// Voters returns every peer of kind "server" with trust strictly above
// minTrustLevel and not currently blacklisted, as required to ask them
// to evaluate a dispute (spec.md §4.4).
func (d *Directory) Voters(now time.Time) []Peer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Peer, 0, len(d.peers))
	for _, p := range d.peers {
		if p.Kind != KindServer {
			continue
		}
		if p.Trust <= d.minTrust {
			continue
		}
		if p.Blacklisted(now) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// PenalizeLoser decays the trust of a peer on the losing side of a
// resolved dispute, blacklisting it once trust drops to or below
// minTrustLevel (spec.md §4.4 "Trust update").
func (d *Directory) PenalizeLoser(id int, now time.Time) Peer {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.peers[id]
	if !ok {
		p = &Peer{ID: id, Trust: d.initialTrust}
		d.peers[id] = p
	}
	p.Trust -= d.decayRate
	if p.Trust < 0 {
		p.Trust = 0
	}
	if p.Trust <= d.minTrust {
		p.BlacklistedUntil = now.Add(d.blacklistDur)
	}
	return *p
}

// IsBlacklisted reports whether id is currently blacklisted.
func (d *Directory) IsBlacklisted(id int, now time.Time) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.peers[id]
	if !ok {
		return false
	}
	return p.Blacklisted(now)
}

// Snapshot returns a copy of every known peer, for admin introspection.
func (d *Directory) Snapshot() []Peer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Peer, 0, len(d.peers))
	for _, p := range d.peers {
		out = append(out, *p)
	}
	return out
}
