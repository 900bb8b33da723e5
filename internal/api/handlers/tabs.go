package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/models"
)

// Tab godoc
// @Summary Tab state
// @Description Returns one tab's serialized session state
// @Tags tabs
// @Produce json
// @Param id path string true "Tab ID"
// @Success 200 {object} models.TabResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tabs/{id} [get]
func (h *Handler) Tab(c *gin.Context) {
	h.mu.RLock()
	tabs := h.tabs
	h.mu.RUnlock()

	if tabs == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
		return
	}

	t, ok := tabs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
		return
	}

	snap := t.Serialize(time.Now())
	history := make([]models.TabHistoryEntry, 0, len(snap.History))
	for _, e := range snap.History {
		history = append(history, models.TabHistoryEntry{URL: e.URL, Title: e.Title, ScrollY: e.ScrollY})
	}

	c.JSON(http.StatusOK, models.TabResponse{
		ID: snap.ID, History: history, HistoryIndex: snap.HistoryIndex,
		Zoom: snap.Zoom, ScrollX: snap.ScrollX, ScrollY: snap.ScrollY,
		Title: snap.Title, ContentType: snap.ContentType, Error: snap.Error,
	})
}

// LoaderStatus godoc
// @Summary Loader occupancy
// @Description Returns the concurrent page loader's current in-flight/queued counts
// @Tags loader
// @Produce json
// @Success 200 {object} models.LoaderStatusResponse
// @Router /loader/status [get]
func (h *Handler) LoaderStatus(c *gin.Context) {
	h.mu.RLock()
	ld := h.ld
	h.mu.RUnlock()

	if ld == nil {
		c.JSON(http.StatusOK, models.LoaderStatusResponse{})
		return
	}

	status := ld.GetLoadingStatus()
	c.JSON(http.StatusOK, models.LoaderStatusResponse{
		Loading: status.Loading, Queued: status.Queued, MaxConcurrent: status.MaxConcurrent,
	})
}
