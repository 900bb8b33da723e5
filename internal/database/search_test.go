package database

import (
	"testing"

	"github.com/httptim/rednet-core/internal/search/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadDocumentRoundTrip(t *testing.T) {
	db := openTestDB(t)

	doc := index.Document{URL: "rdnt://a", Title: "A", Content: "cats and dogs", Type: "text"}
	require.NoError(t, db.SaveDocument(doc))

	docs, err := db.LoadDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.URL, docs[0].URL)
	assert.Equal(t, doc.Content, docs[0].Content)
}

func TestSaveDocumentUpsertsByURL(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveDocument(index.Document{URL: "rdnt://a", Title: "A", Content: "first"}))
	require.NoError(t, db.SaveDocument(index.Document{URL: "rdnt://a", Title: "A2", Content: "second"}))

	docs, err := db.LoadDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "second", docs[0].Content)
}

func TestLoadDocumentsFeedsIndexLoadFromDocuments(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveDocument(index.Document{URL: "rdnt://a", Title: "A", Content: "cats and dogs", Type: "text"}))
	require.NoError(t, db.SaveDocument(index.Document{URL: "rdnt://b", Title: "B", Content: "cats only", Type: "text"}))

	docs, err := db.LoadDocuments()
	require.NoError(t, err)

	ix := index.New()
	ix.LoadFromDocuments(docs)
	assert.Equal(t, 2, ix.Stats().TotalDocuments)
	assert.Equal(t, 2, ix.DocFrequency("cats"))
}

func TestDeleteDocumentRemovesEntry(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveDocument(index.Document{URL: "rdnt://a", Content: "x"}))
	require.NoError(t, db.DeleteDocument("rdnt://a"))

	docs, err := db.LoadDocuments()
	require.NoError(t, err)
	assert.Empty(t, docs)
}
