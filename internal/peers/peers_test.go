package peers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDefaultsInitialTrust(t *testing.T) {
	d := New(1.0, 0.1, 0.1, time.Hour)
	p := d.Observe(7, KindServer)
	assert.Equal(t, 1.0, p.Trust)
	assert.Equal(t, KindServer, p.Kind)

	// Re-observing does not reset trust.
	d.PenalizeLoser(7, time.Now())
	p2 := d.Observe(7, KindServer)
	assert.Less(t, p2.Trust, 1.0)
}

func TestVotersExcludesLowTrustAndBlacklisted(t *testing.T) {
	d := New(1.0, 0.5, 1.0, time.Hour)
	d.Observe(1, KindServer)
	d.Observe(2, KindClient)

	now := time.Now()
	voters := d.Voters(now)
	require.Len(t, voters, 1)
	assert.Equal(t, 1, voters[0].ID)

	// Decay peer 1 below threshold; it should no longer be a voter and
	// should become blacklisted (minTrust=0.5 >= trust after one decay).
	d.PenalizeLoser(1, now)
	voters = d.Voters(now)
	assert.Empty(t, voters)
	assert.True(t, d.IsBlacklisted(1, now))
}

func TestTrustNeverNegative(t *testing.T) {
	d := New(0.05, 0.1, 1.0, time.Hour)
	d.Observe(1, KindServer)
	d.PenalizeLoser(1, time.Now())
	d.PenalizeLoser(1, time.Now())
	p, ok := d.Get(1)
	require.True(t, ok)
	assert.Equal(t, 0.0, p.Trust)
}

func TestBlacklistExpires(t *testing.T) {
	d := New(1.0, 0.9, 1.0, time.Millisecond)
	d.Observe(1, KindServer)
	now := time.Now()
	d.PenalizeLoser(1, now)
	assert.True(t, d.IsBlacklisted(1, now))
	assert.False(t, d.IsBlacklisted(1, now.Add(time.Second)))
}
