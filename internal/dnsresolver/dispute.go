// Package dnsresolver implements DNS Resolver (spec.md C4): the
// dispute lifecycle state machine, trust-weighted voting, tallying,
// and peer trust/blacklist updates on resolution.
package dnsresolver

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one peer's evaluation of a dispute.
type Vote string

const (
	VoteClaimant Vote = "claimant"
	VoteClaimed  Vote = "claimed"
	VoteAbstain  Vote = "abstain"
)

// Status is a dispute's place in its lifecycle (spec.md §4.4).
type Status string

const (
	StatusVoting            Status = "voting"
	StatusTallying          Status = "tallying"
	StatusResolved          Status = "resolved"
	StatusExpired           Status = "expired"
	StatusInsufficientVotes Status = "insufficient_votes"
)

// CastVote records one peer's weighted vote.
type CastVote struct {
	Vote  Vote
	Trust float64
}

// Dispute is the full record for one ownership challenge (spec.md §3).
type Dispute struct {
	ID         string
	Domain     string
	ClaimantID int
	ClaimedID  int
	Evidence   map[string]string
	RaisedAt   time.Time
	ExpiresAt  time.Time
	Votes      map[int]CastVote
	Status     Status
	Winner     *int // nil if no winner
	Resolution string
}

// NewDispute creates a fresh dispute in "voting" status.
func NewDispute(domain string, claimantID, claimedID int, evidence map[string]string, now time.Time, votingTimeout time.Duration) *Dispute {
	return &Dispute{
		ID:         uuid.NewString(),
		Domain:     domain,
		ClaimantID: claimantID,
		ClaimedID:  claimedID,
		Evidence:   evidence,
		RaisedAt:   now,
		ExpiresAt:  now.Add(votingTimeout),
		Votes:      map[int]CastVote{},
		Status:     StatusVoting,
	}
}

// CastVote records voterID's vote, provided the dispute is still
// accepting votes and the voting window has not closed. Late votes
// (after ExpiresAt) are ignored per spec.md §5's hard wall-clock bound.
func (d *Dispute) CastVote(voterID int, vote Vote, trust float64, now time.Time) bool {
	if d.Status != StatusVoting {
		return false
	}
	if now.After(d.ExpiresAt) {
		return false
	}
	d.Votes[voterID] = CastVote{Vote: vote, Trust: trust}
	return true
}
