package database

import (
	"fmt"
	"time"

	"github.com/httptim/rednet-core/internal/dnsname"
)

// SaveRegistryRecord upserts one DNS registry record (spec.md C3), so a
// restarted node can answer lookups for domains it previously
// registered or observed without waiting to relearn them over the
// network.
func (db *DB) SaveRegistryRecord(rec dnsname.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO dns_registry (domain, kind, owner_id, target, registered_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			kind = excluded.kind,
			owner_id = excluded.owner_id,
			target = excluded.target,
			registered_at = excluded.registered_at
	`, rec.Domain, string(rec.Kind), rec.OwnerID, rec.Target, rec.RegisteredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save registry record %s: %w", rec.Domain, err)
	}
	return nil
}

// LoadRegistry returns every persisted registry record, for replaying
// into a fresh dnsname.Registry at startup.
func (db *DB) LoadRegistry() ([]dnsname.Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`SELECT domain, kind, owner_id, target, registered_at FROM dns_registry`)
	if err != nil {
		return nil, fmt.Errorf("failed to query registry: %w", err)
	}
	defer rows.Close()

	var out []dnsname.Record
	for rows.Next() {
		var rec dnsname.Record
		var kind string
		var registeredAt time.Time
		if err := rows.Scan(&rec.Domain, &kind, &rec.OwnerID, &rec.Target, &registeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan registry row: %w", err)
		}
		rec.Kind = dnsname.Kind(kind)
		rec.RegisteredAt = registeredAt
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRegistryRecord removes a registry record, used when a domain
// loses an ownership dispute (spec.md §4.4).
func (db *DB) DeleteRegistryRecord(domain string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`DELETE FROM dns_registry WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete registry record %s: %w", domain, err)
	}
	return nil
}
