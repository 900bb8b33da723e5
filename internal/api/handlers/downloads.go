package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/models"
)

// Downloads godoc
// @Summary Recent downloads
// @Description Returns the bounded ring of recently completed/cancelled/failed downloads
// @Tags downloads
// @Produce json
// @Success 200 {object} models.DownloadsResponse
// @Router /downloads [get]
func (h *Handler) Downloads(c *gin.Context) {
	h.mu.RLock()
	mgr := h.downloads
	h.mu.RUnlock()

	if mgr == nil {
		c.JSON(http.StatusOK, models.DownloadsResponse{Downloads: []models.DownloadEntry{}})
		return
	}

	completed := mgr.Completed()
	entries := make([]models.DownloadEntry, 0, len(completed))
	for _, d := range completed {
		entries = append(entries, models.DownloadEntry{
			ID: d.ID, URL: d.URL, Filename: d.Filename, TabID: d.TabID,
			StartedAt: d.StartedAt, EndedAt: d.EndedAt, Size: d.Size,
			Progress: d.Progress, Status: string(d.Status), Error: d.Error,
		})
	}
	c.JSON(http.StatusOK, models.DownloadsResponse{Downloads: entries, Count: len(entries)})
}
