package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/models"
)

// DNSCache godoc
// @Summary DNS cache snapshot
// @Description Returns every unexpired DNS cache entry with hit/miss counters
// @Tags dns
// @Produce json
// @Success 200 {object} models.DNSCacheResponse
// @Router /dns/cache [get]
func (h *Handler) DNSCache(c *gin.Context) {
	h.mu.RLock()
	cache := h.cache
	h.mu.RUnlock()

	if cache == nil {
		c.JSON(http.StatusOK, models.DNSCacheResponse{Entries: []models.DNSCacheEntry{}})
		return
	}

	entries := cache.Entries()
	resp := models.DNSCacheResponse{Entries: make([]models.DNSCacheEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, models.DNSCacheEntry{
			Domain: e.Domain, OwnerID: e.OwnerID, Kind: string(e.Kind),
			Target: e.Target, ResolvedAt: e.ResolvedAt, ExpiresAt: e.ExpiresAt,
		})
	}
	stats := cache.Stats()
	resp.Hits, resp.Misses = stats.Hits, stats.Misses
	c.JSON(http.StatusOK, resp)
}

// DNSRegistry godoc
// @Summary DNS registry snapshot
// @Description Returns every known registry record, local and observed
// @Tags dns
// @Produce json
// @Success 200 {object} models.DNSRegistryResponse
// @Router /dns/registry [get]
func (h *Handler) DNSRegistry(c *gin.Context) {
	h.mu.RLock()
	registry := h.registry
	h.mu.RUnlock()

	if registry == nil {
		c.JSON(http.StatusOK, models.DNSRegistryResponse{Records: []models.DNSRegistryEntry{}})
		return
	}

	records := registry.All()
	resp := models.DNSRegistryResponse{Records: make([]models.DNSRegistryEntry, 0, len(records)), Count: len(records)}
	for _, r := range records {
		resp.Records = append(resp.Records, models.DNSRegistryEntry{
			Domain: r.Domain, Kind: string(r.Kind), OwnerID: r.OwnerID,
			Target: r.Target, RegisteredAt: r.RegisteredAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}
