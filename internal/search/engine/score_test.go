package engine

import (
	"testing"

	"github.com/httptim/rednet-core/internal/search/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestIndex() *index.Index {
	ix := index.New()
	ix.AddDocument("rdnt://a", "Cats Page", "cats are great pets and cats are fun", "text")
	ix.AddDocument("rdnt://b", "Dogs Page", "dogs are loyal pets", "text")
	ix.AddDocument("rdnt://c", "Mixed", "cats and dogs can be friends", "text")
	return ix
}

func TestScoreRanksHigherTFHigher(t *testing.T) {
	ix := buildTestIndex()
	node, err := Parse("cats")
	require.NoError(t, err)

	results := Score(node, ix)
	require.Len(t, results, 2)
	assert.Equal(t, "rdnt://a", results[0].URL, "doc with higher cats tf should rank first")
}

func TestScoreANDRequiresBothTerms(t *testing.T) {
	ix := buildTestIndex()
	node, err := Parse("cats dogs")
	require.NoError(t, err)

	results := Score(node, ix)
	require.Len(t, results, 1)
	assert.Equal(t, "rdnt://c", results[0].URL)
}

func TestScorePhraseRequiresAdjacency(t *testing.T) {
	ix := index.New()
	ix.AddDocument("rdnt://a", "A", "the quick brown fox jumps", "text")
	ix.AddDocument("rdnt://b", "B", "quick and brown but not adjacent fox", "text")

	node, err := Parse(`"quick brown fox"`)
	require.NoError(t, err)

	results := Score(node, ix)
	require.Len(t, results, 1)
	assert.Equal(t, "rdnt://a", results[0].URL)
}

func TestScoreFilterBySite(t *testing.T) {
	ix := buildTestIndex()
	node, err := Parse("site:rdnt://b pets")
	require.NoError(t, err)

	results := Score(node, ix)
	require.Len(t, results, 1)
	assert.Equal(t, "rdnt://b", results[0].URL)
}

func TestScoreNotExcludesTerm(t *testing.T) {
	ix := buildTestIndex()
	node, err := Parse("pets -dogs")
	require.NoError(t, err)

	results := Score(node, ix)
	for _, r := range results {
		assert.NotEqual(t, "rdnt://b", r.URL)
	}
}
