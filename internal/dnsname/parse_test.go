package dnsname

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComputerDomain(t *testing.T) {
	p, err := Parse("Blog.Comp42.Rednet", 32)
	require.NoError(t, err)
	assert.Equal(t, KindComputer, p.Kind)
	assert.Equal(t, 42, p.NodeID)
	assert.Equal(t, "blog.comp42.rednet", p.Domain)
}

func TestParseAlias(t *testing.T) {
	p, err := Parse("shop", 32)
	require.NoError(t, err)
	assert.Equal(t, KindAlias, p.Kind)

	p2, err := Parse("shop.rednet", 32)
	require.NoError(t, err)
	assert.Equal(t, KindAlias, p2.Kind)
}

func TestParseReservedNameRejected(t *testing.T) {
	_, err := Parse("admin", 32)
	assert.ErrorIs(t, err, ErrReservedName)

	_, err = Parse("admin.comp1.rednet", 32)
	assert.ErrorIs(t, err, ErrReservedName)
}

func TestParseDomainLengthBoundary(t *testing.T) {
	exact := strings.Repeat("a", 32)
	_, err := Parse(exact, 32)
	assert.NoError(t, err)

	tooLong := strings.Repeat("a", 33)
	_, err = Parse(tooLong, 32)
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("", 32)
	assert.ErrorIs(t, err, ErrEmptyDomain)
}

func TestParseTotality(t *testing.T) {
	inputs := []string{"blog.comp42.rednet", "shop", "", "admin", "bad label!"}
	for _, in := range inputs {
		p, err := Parse(in, 32)
		if err != nil {
			continue
		}
		assert.Contains(t, []Kind{KindComputer, KindAlias}, p.Kind)
	}
}

func TestParseIdempotentLowercasing(t *testing.T) {
	p1, err := Parse("Shop.Rednet", 32)
	require.NoError(t, err)
	p2, err := Parse(p1.Domain, 32)
	require.NoError(t, err)
	assert.Equal(t, p1.Domain, p2.Domain)
}
