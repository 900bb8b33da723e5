package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBareTermsAreAND(t *testing.T) {
	node, err := Parse("cat dog")
	require.NoError(t, err)
	assert.Equal(t, NodeAnd, node.Kind)
	assert.Equal(t, "cat", node.Left.Term)
	assert.Equal(t, "dog", node.Right.Term)
}

func TestParseExplicitOR(t *testing.T) {
	node, err := Parse("cat OR dog")
	require.NoError(t, err)
	assert.Equal(t, NodeOr, node.Kind)
}

func TestParseMinusIsNOT(t *testing.T) {
	node, err := Parse("cat -dog")
	require.NoError(t, err)
	require.Equal(t, NodeAnd, node.Kind)
	assert.Equal(t, NodeNot, node.Right.Kind)
	assert.Equal(t, "dog", node.Right.Child.Term)
}

func TestParsePhraseIsOrderedAdjacency(t *testing.T) {
	node, err := Parse(`"quick brown fox"`)
	require.NoError(t, err)
	assert.Equal(t, NodePhrase, node.Kind)
	assert.Equal(t, []string{"quick", "brown", "fox"}, node.Phrase)
}

func TestParseFilters(t *testing.T) {
	node, err := Parse("site:example.comp1.rednet cats")
	require.NoError(t, err)
	require.Equal(t, NodeAnd, node.Kind)
	assert.Equal(t, NodeFilter, node.Left.Kind)
	assert.Equal(t, "site", node.Left.FilterKey)
	assert.Equal(t, "example.comp1.rednet", node.Left.FilterVal)
}

func TestParseParenthesizedSubExpression(t *testing.T) {
	node, err := Parse("(cat OR dog) AND food")
	require.NoError(t, err)
	require.Equal(t, NodeAnd, node.Kind)
	assert.Equal(t, NodeOr, node.Left.Kind)
	assert.Equal(t, "food", node.Right.Term)
}

func TestParseUnterminatedQuoteErrors(t *testing.T) {
	_, err := Parse(`"unterminated`)
	assert.Error(t, err)
}

func TestParseMissingParenErrors(t *testing.T) {
	_, err := Parse("(cat OR dog")
	assert.Error(t, err)
}

func TestParseEmptyQueryErrors(t *testing.T) {
	_, err := Parse("   ")
	assert.Error(t, err)
}
