package database

import (
	"fmt"

	"github.com/httptim/rednet-core/internal/search/index"
)

// SaveDocument upserts one search document by URL (spec.md C10). The
// document's postings and term frequencies are never stored directly;
// index.LoadFromDocuments re-tokenizes the loaded content, so the schema stays
// stable even as tokenization rules evolve.
func (db *DB) SaveDocument(doc index.Document) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO search_documents (url, title, content, type, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			type = excluded.type,
			updated_at = CURRENT_TIMESTAMP
	`, doc.URL, doc.Title, doc.Content, doc.Type)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.URL, err)
	}
	return nil
}

// LoadDocuments returns every persisted document, for rebuilding a
// fresh index.Index at startup.
func (db *DB) LoadDocuments() ([]index.Document, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`SELECT url, title, content, type FROM search_documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var out []index.Document
	for rows.Next() {
		var doc index.Document
		if err := rows.Scan(&doc.URL, &doc.Title, &doc.Content, &doc.Type); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// DeleteDocument removes a persisted document by URL.
func (db *DB) DeleteDocument(url string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`DELETE FROM search_documents WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", url, err)
	}
	return nil
}
