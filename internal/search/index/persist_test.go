package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	ix := New()
	ix.AddDocument("rdnt://a", "Page A", "hello world", "text")
	ix.AddDocument("rdnt://b", "Page B", "goodbye world", "text")

	require.NoError(t, ix.Save(path))

	loaded := New()
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, ix.Stats(), loaded.Stats())
	assert.Equal(t, 2, loaded.DocFrequency("world"))
}

func TestMergeImportsNonConflictingDocuments(t *testing.T) {
	pathA := filepath.Join(t.TempDir(), "a.json")
	pathB := filepath.Join(t.TempDir(), "b.json")

	a := New()
	a.AddDocument("rdnt://shared", "Shared", "shared content", "text")
	require.NoError(t, a.Save(pathA))

	b := New()
	b.AddDocument("rdnt://shared", "Shared Newer", "different content here", "text")
	b.AddDocument("rdnt://unique", "Unique", "brand new content", "text")
	require.NoError(t, b.Save(pathB))

	imported, err := a.Merge(pathB)
	require.NoError(t, err)
	assert.Equal(t, 1, imported, "only the non-conflicting URL should import")

	stats := a.Stats()
	assert.Equal(t, 2, stats.TotalDocuments)
}
