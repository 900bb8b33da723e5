package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/handlers"
	"github.com/httptim/rednet-core/internal/dnsresolver"
	"github.com/httptim/rednet-core/internal/peers"
	"github.com/httptim/rednet-core/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestResolver(t *testing.T) *dnsresolver.Resolver {
	t.Helper()
	bus := transport.NewLoopbackBus(9009)
	dir := peers.New(1.0, 0.1, 0.1, time.Hour)
	return dnsresolver.New(dnsresolver.Config{
		MinVoters: 1, VotingTimeout: time.Hour, MajorityThreshold: 0.5, MaxDisputesPerHour: 5,
	}, bus, dir, nil)
}

func TestDisputesListsAllKnownDisputes(t *testing.T) {
	h := handlers.New(nil, nil)
	resolver := newTestResolver(t)
	d, err := resolver.RaiseDispute(context.Background(), "shop.1001.rn", 1001, 2002, map[string]string{"proof": "ts"}, time.Now())
	require.NoError(t, err)
	resolver.RecordVote(d.ID, 3003, dnsresolver.VoteClaimant, time.Now())
	h.SetResolver(resolver)

	r := gin.New()
	r.GET("/disputes", h.Disputes)

	req := httptest.NewRequest(http.MethodGet, "/disputes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shop.1001.rn")
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestDisputeDetailIncludesVotes(t *testing.T) {
	h := handlers.New(nil, nil)
	resolver := newTestResolver(t)
	d, err := resolver.RaiseDispute(context.Background(), "shop.1001.rn", 1001, 2002, map[string]string{"proof": "ts"}, time.Now())
	require.NoError(t, err)
	resolver.RecordVote(d.ID, 3003, dnsresolver.VoteClaimant, time.Now())
	h.SetResolver(resolver)

	r := gin.New()
	r.GET("/disputes/:id", h.Dispute)

	req := httptest.NewRequest(http.MethodGet, "/disputes/"+d.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "claimant")
}

func TestDisputeDetailReturns404ForUnknownID(t *testing.T) {
	h := handlers.New(nil, nil)
	h.SetResolver(newTestResolver(t))

	r := gin.New()
	r.GET("/disputes/:id", h.Dispute)

	req := httptest.NewRequest(http.MethodGet, "/disputes/does-not-exist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
