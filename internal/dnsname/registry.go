package dnsname

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNotOwner          = errors.New("dnsname: not the owning node")
	ErrAliasTargetNeeded = errors.New("dnsname: alias requires a target computer domain")
	ErrTargetNotOwned    = errors.New("dnsname: target computer domain not owned by registering node")
	ErrAliasTaken        = errors.New("dnsname: alias already held with an earlier timestamp")
)

// Record is one entry in the local registry (spec.md §3).
type Record struct {
	Domain       string
	Kind         Kind
	OwnerID      int
	Target       string // populated for aliases
	RegisteredAt time.Time
}

// Registry is the local node's name registry. Only this node mutates
// it; other nodes observe via DNS_REGISTER broadcasts and may feed
// externally observed records in through ObserveExternal (used by the
// cache, not the registry itself — see spec.md §5 ownership summary).
type Registry struct {
	selfID int

	mu      sync.RWMutex
	records map[string]Record
}

// New creates an empty registry scoped to selfID's node identity.
func New(selfID int) *Registry {
	return &Registry{selfID: selfID, records: map[string]Record{}}
}

// Register attempts to create or idempotently re-confirm a domain
// record. target is ignored for computer domains and required for
// aliases.
func (r *Registry) Register(parsed Parsed, target string, now time.Time) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[parsed.Domain]; ok {
		// Idempotent re-registration by the same owner is a no-op.
		if existing.OwnerID == r.selfID {
			return existing, nil
		}
	}

	switch parsed.Kind {
	case KindComputer:
		if parsed.NodeID != r.selfID {
			return Record{}, fmt.Errorf("%w: domain id %d != self %d", ErrNotOwner, parsed.NodeID, r.selfID)
		}
		rec := Record{Domain: parsed.Domain, Kind: KindComputer, OwnerID: r.selfID, RegisteredAt: now}
		r.records[parsed.Domain] = rec
		return rec, nil

	case KindAlias:
		if target == "" {
			return Record{}, ErrAliasTargetNeeded
		}
		targetParsed, err := Parse(target, len(target)+1)
		if err != nil || targetParsed.Kind != KindComputer {
			return Record{}, fmt.Errorf("%w: %v", ErrAliasTargetNeeded, err)
		}
		if targetParsed.NodeID != r.selfID {
			return Record{}, ErrTargetNotOwned
		}
		if existing, ok := r.records[parsed.Domain]; ok && existing.RegisteredAt.Before(now) {
			return Record{}, ErrAliasTaken
		}
		rec := Record{Domain: parsed.Domain, Kind: KindAlias, OwnerID: r.selfID, Target: target, RegisteredAt: now}
		r.records[parsed.Domain] = rec
		return rec, nil
	}

	return Record{}, fmt.Errorf("dnsname: unknown kind %q", parsed.Kind)
}

// Lookup returns the locally registered record for domain, if any.
func (r *Registry) Lookup(domain string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[domain]
	return rec, ok
}

// ObserveExternal admits a DNS_REGISTER announcement from another node
// into the local registry's alias bookkeeping, honoring
// first-register-wins-by-earliest-timestamp (spec.md §4.2 example 2).
// Computer-domain announcements for other nodes are accepted as-is
// since ownership of those is implicit in the domain string.
func (r *Registry) ObserveExternal(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.OwnerID == r.selfID {
		return // never let a remote announcement override local authority
	}
	existing, ok := r.records[rec.Domain]
	if !ok || rec.RegisteredAt.Before(existing.RegisteredAt) {
		r.records[rec.Domain] = rec
	}
}

// All returns every known record (local and observed), for admin
// introspection and the responder's answer-from-registry path.
func (r *Registry) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out
}
