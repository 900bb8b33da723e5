package index

import (
	"errors"
	"sync"
)

// ErrDocumentNotFound is returned by operations on an unknown document id.
var ErrDocumentNotFound = errors.New("index: document not found")

// Document is one indexed resource's metadata (spec.md §4.10).
type Document struct {
	ID      int
	URL     string
	Title   string
	Content string
	Type    string
	Terms   int // total token count, for tf normalization elsewhere
}

// Posting records where a term appears: document id and its term
// frequency within that document.
type Posting struct {
	DocID int
	TF    int
}

// Index is the in-memory inverted index: postings per term plus document
// frequency, backing both indexing operations and the query engine.
type Index struct {
	mu sync.RWMutex

	nextID    int
	documents map[int]*Document
	postings  map[string][]Posting // term -> postings, sorted by DocID
	df        map[string]int

	totalDocuments int
	totalTerms     int
}

// New creates an empty index.
func New() *Index {
	return &Index{
		documents: map[int]*Document{},
		postings:  map[string][]Posting{},
		df:        map[string]int{},
	}
}

// AddDocument tokenizes content, assigns a monotonically increasing id,
// and updates postings/df/totals (spec.md §4.10).
func (ix *Index) AddDocument(url, title, content, docType string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.nextID++
	id := ix.nextID
	tf := termFrequencies(content)

	doc := &Document{ID: id, URL: url, Title: title, Content: content, Type: docType, Terms: sumTF(tf)}
	ix.documents[id] = doc

	for term, count := range tf {
		ix.postings[term] = insertPosting(ix.postings[term], Posting{DocID: id, TF: count})
		ix.df[term]++
	}

	ix.totalDocuments++
	ix.totalTerms += doc.Terms
	return id
}

// RemoveDocument removes docID from the index, decrementing df for every
// term it contributed and discarding terms whose df reaches 0.
func (ix *Index) RemoveDocument(docID int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.removeLocked(docID)
}

func (ix *Index) removeLocked(docID int) error {
	doc, ok := ix.documents[docID]
	if !ok {
		return ErrDocumentNotFound
	}

	tf := termFrequencies(doc.Content)
	for term := range tf {
		ix.postings[term] = removePosting(ix.postings[term], docID)
		ix.df[term]--
		if ix.df[term] <= 0 {
			delete(ix.df, term)
			delete(ix.postings, term)
		}
	}

	ix.totalDocuments--
	ix.totalTerms -= doc.Terms
	delete(ix.documents, docID)
	return nil
}

// UpdateDocument replaces docID with a freshly tokenized document,
// implemented as remove+add; the new id need not match the old one
// (spec.md §4.10).
func (ix *Index) UpdateDocument(docID int, url, title, content, docType string) (int, error) {
	if err := ix.RemoveDocument(docID); err != nil {
		return 0, err
	}
	return ix.AddDocument(url, title, content, docType), nil
}

// IndexContent re-tokenizes content for an existing document, rebuilding
// its postings in place without assigning a new id.
func (ix *Index) IndexContent(docID int, content string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	doc, ok := ix.documents[docID]
	if !ok {
		return ErrDocumentNotFound
	}

	oldTF := termFrequencies(doc.Content)
	for term := range oldTF {
		ix.postings[term] = removePosting(ix.postings[term], docID)
		ix.df[term]--
		if ix.df[term] <= 0 {
			delete(ix.df, term)
			delete(ix.postings, term)
		}
	}

	ix.totalTerms -= doc.Terms
	doc.Content = content
	newTF := termFrequencies(content)
	doc.Terms = sumTF(newTF)
	for term, count := range newTF {
		ix.postings[term] = insertPosting(ix.postings[term], Posting{DocID: docID, TF: count})
		ix.df[term]++
	}
	ix.totalTerms += doc.Terms
	return nil
}

// Document returns a copy of one document's metadata.
func (ix *Index) Document(docID int) (Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	doc, ok := ix.documents[docID]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// Postings returns the postings list for term.
func (ix *Index) Postings(term string) []Posting {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Posting, len(ix.postings[term]))
	copy(out, ix.postings[term])
	return out
}

// DocFrequency returns df(term).
func (ix *Index) DocFrequency(term string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.df[term]
}

// Stats reports corpus-wide counters used by scoring.
type Stats struct {
	TotalDocuments int
	TotalTerms     int
}

// Stats returns current corpus totals.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Stats{TotalDocuments: ix.totalDocuments, TotalTerms: ix.totalTerms}
}

// AllDocuments returns a snapshot of every live document, for callers
// that need to scan the whole corpus (e.g. filter evaluation).
func (ix *Index) AllDocuments() []Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Document, 0, len(ix.documents))
	for _, doc := range ix.documents {
		out = append(out, *doc)
	}
	return out
}

// LoadFromDocuments resets the index and re-adds each document,
// re-tokenizing content to rebuild postings/df. Documents are assigned
// fresh sequential ids since id is an index-internal detail, not a
// value any caller persists by reference (callers key on URL).
// Used to rebuild an index from a SQLite-backed document store at
// startup (spec.md C10).
func (ix *Index) LoadFromDocuments(docs []Document) {
	ix.mu.Lock()
	ix.resetLocked()
	ix.nextID = 0
	ix.mu.Unlock()

	for _, doc := range docs {
		ix.AddDocument(doc.URL, doc.Title, doc.Content, doc.Type)
	}
}

// TermsWithPrefix returns every indexed term starting with prefix,
// ranked by descending df — used by the engine's getSuggestions.
func (ix *Index) TermsWithPrefix(prefix string, limit int) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type scored = struct {
		term string
		df   int
	}
	var matches []scored
	for term, df := range ix.df {
		if len(term) >= len(prefix) && term[:len(prefix)] == prefix {
			matches = append(matches, scored{term, df})
		}
	}
	sortByDFDesc(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.term
	}
	return out
}

func sortByDFDesc(matches []struct {
	term string
	df   int
}) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].df > matches[j-1].df; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

func termFrequencies(content string) map[string]int {
	tf := map[string]int{}
	for _, term := range Tokenize(content) {
		tf[term]++
	}
	return tf
}

func sumTF(tf map[string]int) int {
	n := 0
	for _, c := range tf {
		n += c
	}
	return n
}

func insertPosting(postings []Posting, p Posting) []Posting {
	i := 0
	for ; i < len(postings); i++ {
		if postings[i].DocID == p.DocID {
			postings[i] = p
			return postings
		}
		if postings[i].DocID > p.DocID {
			break
		}
	}
	postings = append(postings, Posting{})
	copy(postings[i+1:], postings[i:])
	postings[i] = p
	return postings
}

func removePosting(postings []Posting, docID int) []Posting {
	for i, p := range postings {
		if p.DocID == docID {
			return append(postings[:i], postings[i+1:]...)
		}
	}
	return postings
}
