package engine

import (
	"strings"
)

const snippetLength = 150

// Snippet extracts a ~150-char window around the first occurrence of any
// query term in content, with ellipsis on truncation (spec.md §4.11).
func Snippet(content string, terms []string) string {
	lower := strings.ToLower(content)
	pos := -1
	for _, t := range terms {
		if idx := strings.Index(lower, t); idx >= 0 && (pos == -1 || idx < pos) {
			pos = idx
		}
	}
	if pos == -1 {
		if len(content) <= snippetLength {
			return content
		}
		return strings.TrimSpace(content[:snippetLength]) + "…"
	}

	start := pos - snippetLength/3
	if start < 0 {
		start = 0
	}
	end := start + snippetLength
	if end > len(content) {
		end = len(content)
		start = end - snippetLength
		if start < 0 {
			start = 0
		}
	}

	snippet := strings.TrimSpace(content[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(content) {
		snippet = snippet + "…"
	}
	return snippet
}
