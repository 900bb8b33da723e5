// Package index implements the Search Index (spec.md C10): tokenization,
// the inverted index (postings + document frequencies), and persistence.
package index

import (
	"strings"
	"unicode"
)

// stopWords are dropped during tokenization (spec.md §4.10).
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "were": true, "will": true,
	"with": true, "this": true, "but": true, "or": true, "not": true,
}

// Tokenize lowercases text, splits on runs of non-alphanumeric
// characters, and drops stop-words and tokens under 2 characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
