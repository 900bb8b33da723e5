package dnsname

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterComputerDomainRequiresMatchingID(t *testing.T) {
	reg := New(42)
	parsed, err := Parse("blog.comp42.rednet", 32)
	require.NoError(t, err)

	rec, err := reg.Register(parsed, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 42, rec.OwnerID)

	otherParsed, err := Parse("blog.comp7.rednet", 32)
	require.NoError(t, err)
	_, err = reg.Register(otherParsed, "", time.Now())
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestRegisterComputerDomainIsIdempotent(t *testing.T) {
	reg := New(42)
	parsed, err := Parse("blog.comp42.rednet", 32)
	require.NoError(t, err)

	now := time.Now()
	rec1, err := reg.Register(parsed, "", now)
	require.NoError(t, err)

	rec2, err := reg.Register(parsed, "", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, rec1.RegisteredAt, rec2.RegisteredAt, "re-registration must be a no-op")
}

func TestRegisterAliasRequiresOwnedTarget(t *testing.T) {
	reg := New(42)
	parsed, err := Parse("shop", 32)
	require.NoError(t, err)

	_, err = reg.Register(parsed, "", time.Now())
	assert.ErrorIs(t, err, ErrAliasTargetNeeded)

	_, err = reg.Register(parsed, "s.comp7.rednet", time.Now())
	assert.ErrorIs(t, err, ErrTargetNotOwned)

	rec, err := reg.Register(parsed, "s.comp42.rednet", time.Now())
	require.NoError(t, err)
	assert.Equal(t, KindAlias, rec.Kind)
	assert.Equal(t, "s.comp42.rednet", rec.Target)
}

func TestObserveExternalPicksEarliestTimestamp(t *testing.T) {
	reg := New(99)
	now := time.Now()

	reg.ObserveExternal(Record{Domain: "shop", Kind: KindAlias, OwnerID: 2, RegisteredAt: now.Add(time.Second)})
	reg.ObserveExternal(Record{Domain: "shop", Kind: KindAlias, OwnerID: 1, RegisteredAt: now})

	rec, ok := reg.Lookup("shop")
	require.True(t, ok)
	assert.Equal(t, 1, rec.OwnerID, "earliest-ts registration should win")
}

func TestObserveExternalNeverOverridesLocalAuthority(t *testing.T) {
	reg := New(42)
	parsed, err := Parse("blog.comp42.rednet", 32)
	require.NoError(t, err)
	_, err = reg.Register(parsed, "", time.Now())
	require.NoError(t, err)

	reg.ObserveExternal(Record{Domain: "blog.comp42.rednet", Kind: KindComputer, OwnerID: 7, RegisteredAt: time.Now().Add(-time.Hour)})

	rec, ok := reg.Lookup("blog.comp42.rednet")
	require.True(t, ok)
	assert.Equal(t, 42, rec.OwnerID)
}
