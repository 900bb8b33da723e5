package database

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/httptim/rednet-core/internal/dnsresolver"
)

// SaveDispute upserts a dispute record and its votes so far (spec.md
// C4), keeping the dispute's audit trail across a node restart.
func (db *DB) SaveDispute(d *dnsresolver.Dispute) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	evidence, err := json.Marshal(d.Evidence)
	if err != nil {
		return fmt.Errorf("failed to marshal dispute evidence: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var winner sql.NullInt64
	if d.Winner != nil {
		winner = sql.NullInt64{Int64: int64(*d.Winner), Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO dns_disputes (id, domain, claimant_id, claimed_id, evidence_json, raised_at, expires_at, status, winner_id, resolution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			winner_id = excluded.winner_id,
			resolution = excluded.resolution
	`, d.ID, d.Domain, d.ClaimantID, d.ClaimedID, string(evidence), d.RaisedAt.UTC(), d.ExpiresAt.UTC(), string(d.Status), winner, d.Resolution)
	if err != nil {
		return fmt.Errorf("failed to save dispute %s: %w", d.ID, err)
	}

	for voterID, cast := range d.Votes {
		_, err = tx.Exec(`
			INSERT INTO dns_dispute_votes (dispute_id, voter_id, vote, trust)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(dispute_id, voter_id) DO UPDATE SET vote = excluded.vote, trust = excluded.trust
		`, d.ID, voterID, string(cast.Vote), cast.Trust)
		if err != nil {
			return fmt.Errorf("failed to save vote for dispute %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// LoadDisputes returns every persisted dispute with its votes, for
// replaying into a fresh in-memory dispute tracker at startup.
func (db *DB) LoadDisputes() ([]*dnsresolver.Dispute, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, domain, claimant_id, claimed_id, evidence_json, raised_at, expires_at, status, winner_id, resolution
		FROM dns_disputes
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes: %w", err)
	}
	defer rows.Close()

	var disputes []*dnsresolver.Dispute
	for rows.Next() {
		d := &dnsresolver.Dispute{Votes: map[int]dnsresolver.CastVote{}}
		var status, evidenceJSON string
		var winner sql.NullInt64
		if err := rows.Scan(&d.ID, &d.Domain, &d.ClaimantID, &d.ClaimedID, &evidenceJSON, &d.RaisedAt, &d.ExpiresAt, &status, &winner, &d.Resolution); err != nil {
			return nil, fmt.Errorf("failed to scan dispute row: %w", err)
		}
		d.Status = dnsresolver.Status(status)
		if winner.Valid {
			w := int(winner.Int64)
			d.Winner = &w
		}
		if err := json.Unmarshal([]byte(evidenceJSON), &d.Evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence for dispute %s: %w", d.ID, err)
		}
		disputes = append(disputes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, d := range disputes {
		votes, err := db.loadVotesLocked(d.ID)
		if err != nil {
			return nil, err
		}
		d.Votes = votes
	}
	return disputes, nil
}

func (db *DB) loadVotesLocked(disputeID string) (map[int]dnsresolver.CastVote, error) {
	rows, err := db.conn.Query(`SELECT voter_id, vote, trust FROM dns_dispute_votes WHERE dispute_id = ?`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes for dispute %s: %w", disputeID, err)
	}
	defer rows.Close()

	votes := map[int]dnsresolver.CastVote{}
	for rows.Next() {
		var voterID int
		var vote string
		var trust float64
		if err := rows.Scan(&voterID, &vote, &trust); err != nil {
			return nil, fmt.Errorf("failed to scan vote row: %w", err)
		}
		votes[voterID] = dnsresolver.CastVote{Vote: dnsresolver.Vote(vote), Trust: trust}
	}
	return votes, rows.Err()
}
