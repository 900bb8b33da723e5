package api

import (
	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/handlers"
	"github.com/httptim/rednet-core/internal/api/middleware"
	"github.com/httptim/rednet-core/internal/config"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/httptim/rednet-core/internal/api/docs" // swagger docs
)

// RegisterRoutes wires the read-only admin/introspection surface
// (SPEC_FULL.md §6). Every route is a GET; there is no raw SQL
// passthrough and no write endpoint.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	if cfg != nil && cfg.API.APIKey != "" {
		v1.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	v1.GET("/health", h.Health)
	v1.GET("/dns/cache", h.DNSCache)
	v1.GET("/dns/registry", h.DNSRegistry)
	v1.GET("/disputes", h.Disputes)
	v1.GET("/disputes/:id", h.Dispute)
	v1.GET("/tabs/:id", h.Tab)
	v1.GET("/loader/status", h.LoaderStatus)
	v1.GET("/search", h.Search)
	v1.GET("/search/suggest", h.SearchSuggest)
	v1.GET("/downloads", h.Downloads)
}
