package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/models"
	"github.com/httptim/rednet-core/internal/dnsresolver"
)

func disputeToModel(d *dnsresolver.Dispute) models.DisputeSummary {
	votes := make([]models.DisputeVote, 0, len(d.Votes))
	for voterID, v := range d.Votes {
		votes = append(votes, models.DisputeVote{VoterID: voterID, Vote: string(v.Vote), Trust: v.Trust})
	}
	return models.DisputeSummary{
		ID: d.ID, Domain: d.Domain, ClaimantID: d.ClaimantID, ClaimedID: d.ClaimedID,
		Evidence: d.Evidence, RaisedAt: d.RaisedAt, ExpiresAt: d.ExpiresAt,
		Status: string(d.Status), Winner: d.Winner, Resolution: d.Resolution, Votes: votes,
	}
}

// Disputes godoc
// @Summary List disputes
// @Description Returns every known dispute, active and resolved
// @Tags disputes
// @Produce json
// @Success 200 {object} models.DisputeListResponse
// @Router /disputes [get]
func (h *Handler) Disputes(c *gin.Context) {
	h.mu.RLock()
	resolver := h.resolver
	h.mu.RUnlock()

	if resolver == nil {
		c.JSON(http.StatusOK, models.DisputeListResponse{Disputes: []models.DisputeSummary{}})
		return
	}

	all := resolver.All()
	resp := models.DisputeListResponse{Disputes: make([]models.DisputeSummary, 0, len(all)), Count: len(all)}
	for _, d := range all {
		resp.Disputes = append(resp.Disputes, disputeToModel(d))
	}
	c.JSON(http.StatusOK, resp)
}

// Dispute godoc
// @Summary Dispute detail
// @Description Returns one dispute's full record including per-voter votes
// @Tags disputes
// @Produce json
// @Param id path string true "Dispute ID"
// @Success 200 {object} models.DisputeSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /disputes/{id} [get]
func (h *Handler) Dispute(c *gin.Context) {
	h.mu.RLock()
	resolver := h.resolver
	h.mu.RUnlock()

	if resolver == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
		return
	}

	d, ok := resolver.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
		return
	}
	c.JSON(http.StatusOK, disputeToModel(d))
}
