package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippetWindowsAroundFirstTermOccurrence(t *testing.T) {
	content := strings.Repeat("pad ", 60) + "the quick brown fox jumps over the lazy dog" + strings.Repeat(" pad", 60)
	s := Snippet(content, []string{"fox"})
	assert.Contains(t, s, "fox")
	assert.True(t, strings.HasPrefix(s, "…"), "expected leading ellipsis, got %q", s)
	assert.True(t, strings.HasSuffix(s, "…"), "expected trailing ellipsis, got %q", s)
}

func TestSnippetShortContentReturnedWhole(t *testing.T) {
	content := "a short page about cats"
	s := Snippet(content, []string{"cats"})
	assert.Equal(t, content, s)
}

func TestSnippetNoMatchingTermTruncatesFromStart(t *testing.T) {
	content := strings.Repeat("x", 300)
	s := Snippet(content, []string{"nowhere"})
	assert.True(t, strings.HasSuffix(s, "…"))
	assert.False(t, strings.HasPrefix(s, "…"))
}

func TestSnippetCaseInsensitiveMatch(t *testing.T) {
	content := strings.Repeat("pad ", 50) + "The Quick Brown Fox" + strings.Repeat(" pad", 50)
	s := Snippet(content, []string{"quick"})
	assert.Contains(t, strings.ToLower(s), "quick")
}
