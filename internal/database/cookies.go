package database

import (
	"database/sql"
	"fmt"

	"github.com/httptim/rednet-core/internal/shared"
)

// SaveCookie upserts one shared cookie (spec.md C5), so the cookie jar
// survives a node restart instead of dropping every site's session on
// every reload.
func (db *DB) SaveCookie(c shared.Cookie) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var expires sql.NullTime
	if c.Expires != nil {
		expires = sql.NullTime{Time: c.Expires.UTC(), Valid: true}
	}

	secure := 0
	if c.Secure {
		secure = 1
	}

	_, err := db.conn.Exec(`
		INSERT INTO shared_cookies (domain, name, value, expires_at, path, secure)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, name) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			path = excluded.path,
			secure = excluded.secure
	`, c.Domain, c.Name, c.Value, expires, c.Path, secure)
	if err != nil {
		return fmt.Errorf("failed to save cookie %s/%s: %w", c.Domain, c.Name, err)
	}
	return nil
}

// LoadCookies returns every persisted cookie, for replaying into a
// fresh shared.CookieJar at startup.
func (db *DB) LoadCookies() ([]shared.Cookie, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`SELECT domain, name, value, expires_at, path, secure FROM shared_cookies`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var out []shared.Cookie
	for rows.Next() {
		var c shared.Cookie
		var expires sql.NullTime
		var secure int
		if err := rows.Scan(&c.Domain, &c.Name, &c.Value, &expires, &c.Path, &secure); err != nil {
			return nil, fmt.Errorf("failed to scan cookie row: %w", err)
		}
		if expires.Valid {
			t := expires.Time
			c.Expires = &t
		}
		c.Secure = secure != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCookie removes one cookie by domain and name.
func (db *DB) DeleteCookie(domain, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`DELETE FROM shared_cookies WHERE domain = ? AND name = ?`, domain, name)
	if err != nil {
		return fmt.Errorf("failed to delete cookie %s/%s: %w", domain, name, err)
	}
	return nil
}
