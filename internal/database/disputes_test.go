package database

import (
	"testing"
	"time"

	"github.com/httptim/rednet-core/internal/dnsresolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadDisputeRoundTrip(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().Truncate(time.Second).UTC()

	d := dnsresolver.NewDispute("shop.comp7.rednet", 7, 9, map[string]string{"proof": "first-seen"}, now, time.Minute)
	d.CastVote(3, dnsresolver.VoteClaimant, 0.8, now)
	require.NoError(t, db.SaveDispute(d))

	disputes, err := db.LoadDisputes()
	require.NoError(t, err)
	require.Len(t, disputes, 1)

	loaded := disputes[0]
	assert.Equal(t, d.ID, loaded.ID)
	assert.Equal(t, d.Domain, loaded.Domain)
	assert.Equal(t, "first-seen", loaded.Evidence["proof"])
	require.Contains(t, loaded.Votes, 3)
	assert.Equal(t, dnsresolver.VoteClaimant, loaded.Votes[3].Vote)
}

func TestSaveDisputeResavesUpdatedStatus(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().Truncate(time.Second).UTC()

	d := dnsresolver.NewDispute("shop.comp7.rednet", 7, 9, nil, now, time.Minute)
	require.NoError(t, db.SaveDispute(d))

	winner := 7
	d.Status = dnsresolver.StatusResolved
	d.Winner = &winner
	d.Resolution = "claimant retained ownership"
	require.NoError(t, db.SaveDispute(d))

	disputes, err := db.LoadDisputes()
	require.NoError(t, err)
	require.Len(t, disputes, 1)
	assert.Equal(t, dnsresolver.StatusResolved, disputes[0].Status)
	require.NotNil(t, disputes[0].Winner)
	assert.Equal(t, 7, *disputes[0].Winner)
}
