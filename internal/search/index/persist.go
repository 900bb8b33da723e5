package index

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// snapshot is the index's full on-disk representation. Postings and df
// are rebuilt from documents on load rather than serialized directly, so
// the file format stays a simple, auditable document list.
type snapshot struct {
	NextID    int        `json:"nextId"`
	Documents []Document `json:"documents"`
}

// Save serializes the full index to path.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	snap := snapshot{NextID: ix.nextID}
	for _, doc := range ix.documents {
		snap.Documents = append(snap.Documents, *doc)
	}
	ix.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("index: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("index: write snapshot: %w", err)
	}
	return nil
}

// Load replaces the index's contents with the snapshot at path, rebuilding
// postings/df from each document's content.
func (ix *Index) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("index: read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("index: unmarshal snapshot: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.resetLocked()
	ix.nextID = snap.NextID
	for _, doc := range snap.Documents {
		d := doc
		ix.documents[d.ID] = &d
		tf := termFrequencies(d.Content)
		for term, count := range tf {
			ix.postings[term] = insertPosting(ix.postings[term], Posting{DocID: d.ID, TF: count})
			ix.df[term]++
		}
		ix.totalDocuments++
		ix.totalTerms += d.Terms
	}
	return nil
}

func (ix *Index) resetLocked() {
	ix.documents = map[int]*Document{}
	ix.postings = map[string][]Posting{}
	ix.df = map[string]int{}
	ix.totalDocuments = 0
	ix.totalTerms = 0
}

// Merge imports documents from otherPath that don't already exist by URL,
// assigning them fresh ids (spec.md §4.10: "import non-conflicting
// documents").
func (ix *Index) Merge(otherPath string) (imported int, err error) {
	data, err := os.ReadFile(otherPath)
	if err != nil {
		return 0, fmt.Errorf("index: read merge source: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("index: unmarshal merge source: %w", err)
	}

	ix.mu.RLock()
	existingURLs := make(map[string]bool, len(ix.documents))
	for _, doc := range ix.documents {
		existingURLs[doc.URL] = true
	}
	ix.mu.RUnlock()

	for _, doc := range snap.Documents {
		if existingURLs[doc.URL] {
			continue
		}
		ix.AddDocument(doc.URL, doc.Title, doc.Content, doc.Type)
		imported++
	}
	return imported, nil
}
