package dnsresolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/httptim/rednet-core/internal/peers"
	"github.com/httptim/rednet-core/internal/transport"
)

var (
	ErrDisputeActive      = errors.New("dnsresolver: domain already has an active dispute")
	ErrRateLimited         = errors.New("dnsresolver: claimant exceeded max disputes per hour")
	ErrClaimantBlacklisted = errors.New("dnsresolver: claimant is blacklisted")
)

const ProtocolDNS = "dns"

const (
	MsgDisputeRaised   = "DISPUTE_RAISED"
	MsgVoteRequest     = "VOTE_REQUEST"
	MsgVoteResponse    = "VOTE_RESPONSE"
	MsgDisputeResolved = "DISPUTE_RESOLVED"
	MsgDNSUpdate       = "DNS_UPDATE"
)

// Config bundles the resolver's tunable parameters (spec.md §6).
type Config struct {
	MinVoters          int
	VotingTimeout      time.Duration
	MajorityThreshold  float64
	MaxDisputesPerHour int
}

// VoteRequestPayload and friends mirror the wire messages in spec.md §6.
type VoteRequestPayload struct {
	DisputeID string
	Domain    string
	Claimant  int
	Claimed   int
	Evidence  map[string]string
}

type VoteResponsePayload struct {
	DisputeID string
	Vote      Vote
	Voter     int
}

type DisputeResolvedPayload struct {
	DisputeID  string
	Domain     string
	Winner     *int
	Resolution string
	TS         time.Time
}

type DNSUpdatePayload struct {
	Domain string
	Owner  int
	Reason string
}

// Resolver owns the active and historical disputes for this node, and
// is the single owner of the peers.Directory's trust/blacklist state
// (spec.md §5).
type Resolver struct {
	cfg    Config
	bus    transport.Bus
	dir    *peers.Directory
	logger *slog.Logger

	mu         sync.Mutex
	active     map[string]*Dispute // by domain
	history    map[string]*Dispute // by id
	raisedAt   map[int][]time.Time // claimantID -> raise timestamps, for rate limiting
}

// New creates a resolver.
func New(cfg Config, bus transport.Bus, dir *peers.Directory, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cfg: cfg, bus: bus, dir: dir, logger: logger,
		active:   map[string]*Dispute{},
		history:  map[string]*Dispute{},
		raisedAt: map[int][]time.Time{},
	}
}

// RaiseDispute starts a new dispute, enforcing the admission rules in
// spec.md §4.4: no active dispute on the domain, claimant not
// rate-limited, claimant not blacklisted.
func (r *Resolver) RaiseDispute(ctx context.Context, domain string, claimantID, claimedID int, evidence map[string]string, now time.Time) (*Dispute, error) {
	r.mu.Lock()
	if _, ok := r.active[domain]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDisputeActive, domain)
	}
	if r.dir.IsBlacklisted(claimantID, now) {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: node %d", ErrClaimantBlacklisted, claimantID)
	}
	r.pruneRaiseHistoryLocked(claimantID, now)
	if len(r.raisedAt[claimantID]) >= r.cfg.MaxDisputesPerHour {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: node %d", ErrRateLimited, claimantID)
	}
	r.raisedAt[claimantID] = append(r.raisedAt[claimantID], now)

	d := NewDispute(domain, claimantID, claimedID, evidence, now, r.cfg.VotingTimeout)
	r.active[domain] = d
	r.mu.Unlock()

	_ = r.bus.Broadcast(ctx, ProtocolDNS, transport.Envelope{
		Type: MsgDisputeRaised, TS: now, Protocol: ProtocolDNS,
		Payload: d,
	})
	for _, voter := range r.dir.Voters(now) {
		_ = r.bus.Send(ctx, voter.ID, ProtocolDNS, transport.Envelope{
			Type: MsgVoteRequest, TS: now, Protocol: ProtocolDNS,
			Payload: VoteRequestPayload{
				DisputeID: d.ID, Domain: domain, Claimant: claimantID,
				Claimed: claimedID, Evidence: evidence,
			},
		})
	}
	return d, nil
}

func (r *Resolver) pruneRaiseHistoryLocked(claimantID int, now time.Time) {
	cutoff := now.Add(-time.Hour)
	kept := r.raisedAt[claimantID][:0]
	for _, ts := range r.raisedAt[claimantID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.raisedAt[claimantID] = kept
}

// EvaluateVoteRequest implements the placeholder peer evaluation policy
// from spec.md §4.4: if evidence carries an ownershipProof, vote
// claimant; otherwise vote status-quo (claimed).
func EvaluateVoteRequest(req VoteRequestPayload) Vote {
	if _, ok := req.Evidence["ownershipProof"]; ok {
		return VoteClaimant
	}
	return VoteClaimed
}

// RecordVote admits a vote into the named dispute, looked up by id.
// Returns false if the dispute is unknown or no longer accepting votes.
func (r *Resolver) RecordVote(disputeID string, voterID int, vote Vote, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.findActiveByIDLocked(disputeID)
	if d == nil {
		return false
	}
	trust := 0.0
	if p, ok := r.dir.Get(voterID); ok {
		trust = p.Trust
	}
	return d.CastVote(voterID, vote, trust, now)
}

func (r *Resolver) findActiveByIDLocked(id string) *Dispute {
	for _, d := range r.active {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Tally closes voting on domain's dispute and resolves it at once,
// without checking whether its voting window has elapsed, applying
// trust updates and broadcasting
// DISPUTE_RESOLVED / DNS_UPDATE (spec.md §4.4).
func (r *Resolver) Tally(ctx context.Context, domain string, now time.Time) (*Dispute, error) {
	r.mu.Lock()
	d, ok := r.active[domain]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("dnsresolver: no active dispute for %s", domain)
	}
	d.Status = StatusTallying

	if len(d.Votes) < r.cfg.MinVoters {
		d.Status = StatusInsufficientVotes
		d.Resolution = "insufficient_votes"
		d.Winner = nil
	} else {
		var claimantWeight, claimedWeight, totalWeight float64
		for _, v := range d.Votes {
			totalWeight += v.Trust
			switch v.Vote {
			case VoteClaimant:
				claimantWeight += v.Trust
			case VoteClaimed:
				claimedWeight += v.Trust
			}
		}
		d.Winner, d.Resolution = decideWinner(claimantWeight, claimedWeight, totalWeight, r.cfg.MajorityThreshold, d.ClaimantID, d.ClaimedID)
	}
	d.Status = StatusResolved

	delete(r.active, domain)
	r.history[d.ID] = d
	r.mu.Unlock()

	r.applyTrustUpdate(d, now)
	r.finalize(ctx, d, now)
	return d, nil
}

func decideWinner(claimantWeight, claimedWeight, totalWeight, threshold float64, claimantID, claimedID int) (*int, string) {
	if totalWeight <= 0 {
		return nil, "no_winner"
	}
	if claimantWeight/totalWeight > threshold {
		id := claimantID
		return &id, "claimant"
	}
	if claimedWeight/totalWeight > threshold {
		id := claimedID
		return &id, "claimed"
	}
	return nil, "no_winner"
}

// applyTrustUpdate decays the losing principal's trust on a decisive
// outcome only (spec.md §4.4, §7 "never on drop").
func (r *Resolver) applyTrustUpdate(d *Dispute, now time.Time) {
	if d.Winner == nil {
		return
	}
	loser := d.ClaimedID
	if *d.Winner == d.ClaimedID {
		loser = d.ClaimantID
	}
	r.dir.PenalizeLoser(loser, now)
}

func (r *Resolver) finalize(ctx context.Context, d *Dispute, now time.Time) {
	_ = r.bus.Broadcast(ctx, ProtocolDNS, transport.Envelope{
		Type: MsgDisputeResolved, TS: now, Protocol: ProtocolDNS,
		Payload: DisputeResolvedPayload{
			DisputeID: d.ID, Domain: d.Domain, Winner: d.Winner,
			Resolution: d.Resolution, TS: now,
		},
	})
	if d.Winner != nil && *d.Winner == d.ClaimantID {
		_ = r.bus.Broadcast(ctx, ProtocolDNS, transport.Envelope{
			Type: MsgDNSUpdate, TS: now, Protocol: ProtocolDNS,
			Payload: DNSUpdatePayload{Domain: d.Domain, Owner: d.ClaimantID, Reason: "dispute_resolved"},
		})
	}
}

// ExpireStale marks any active dispute whose voting window has elapsed
// as expired, without tallying it (spec.md §4.4: "voting --(expiry
// before tally)--> expired").
func (r *Resolver) ExpireStale(now time.Time) []*Dispute {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*Dispute
	for domain, d := range r.active {
		if d.Status == StatusVoting && now.After(d.ExpiresAt) {
			d.Status = StatusExpired
			delete(r.active, domain)
			r.history[d.ID] = d
			expired = append(expired, d)
		}
	}
	return expired
}

// Active returns the dispute currently active for domain, if any.
func (r *Resolver) Active(domain string) (*Dispute, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.active[domain]
	return d, ok
}

// History returns the resolved/expired dispute record by id.
func (r *Resolver) History(id string) (*Dispute, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.history[id]
	return d, ok
}

// AllActive returns every currently active dispute, for admin introspection.
func (r *Resolver) AllActive() []*Dispute {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Dispute, 0, len(r.active))
	for _, d := range r.active {
		out = append(out, d)
	}
	return out
}

// All returns every known dispute, active and historical, for the
// admin API's disputes listing endpoint.
func (r *Resolver) All() []*Dispute {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Dispute, 0, len(r.active)+len(r.history))
	for _, d := range r.active {
		out = append(out, d)
	}
	for _, d := range r.history {
		out = append(out, d)
	}
	return out
}

// Get looks up a dispute by id across both active and historical
// records, for the admin API's disputes/:id endpoint.
func (r *Resolver) Get(id string) (*Dispute, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.history[id]; ok {
		return d, true
	}
	if d := r.findActiveByIDLocked(id); d != nil {
		return d, true
	}
	return nil, false
}
