// Package handlers implements the REST API endpoint handlers for RedNet
// Core's admin/introspection surface (SPEC_FULL.md §6): read-mostly
// views over the DNS registry/cache, dispute history, tab/loader
// state, and search engine, for the dashboards and overlays that
// consume this node from outside.
//
// @title RedNet Core Admin API
// @version 1.0
// @description Read-mostly introspection API over a RedNet Core node's DNS, dispute, tab, loader, and search state.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/httptim/rednet-core/internal/config"
	"github.com/httptim/rednet-core/internal/dnsname"
	"github.com/httptim/rednet-core/internal/dnsresolver"
	"github.com/httptim/rednet-core/internal/loader"
	"github.com/httptim/rednet-core/internal/search/engine"
	"github.com/httptim/rednet-core/internal/shared"
	"github.com/httptim/rednet-core/internal/tab"
)

// Handler holds the node components the admin API reads from. Fields
// are set once at node startup via the Set* methods; the handlers
// themselves only ever read.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time

	mu       sync.RWMutex
	registry *dnsname.Registry
	cache    *dnsname.Cache
	resolver *dnsresolver.Resolver
	tabs      *tab.Manager
	ld        *loader.Loader
	search    *engine.Engine
	downloads *shared.Manager
}

// New creates a Handler with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}

// SetDNS wires the DNS registry and cache for the dns/* endpoints.
func (h *Handler) SetDNS(registry *dnsname.Registry, cache *dnsname.Cache) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registry = registry
	h.cache = cache
}

// SetResolver wires the dispute resolver for the disputes/* endpoints.
func (h *Handler) SetResolver(resolver *dnsresolver.Resolver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolver = resolver
}

// SetTabs wires the tab manager for the tabs/:id endpoint.
func (h *Handler) SetTabs(tabs *tab.Manager) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tabs = tabs
}

// SetLoader wires the page loader for the loader/status endpoint.
func (h *Handler) SetLoader(ld *loader.Loader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ld = ld
}

// SetSearch wires the search engine for the search* endpoints.
func (h *Handler) SetSearch(search *engine.Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.search = search
}

// SetDownloads wires the download manager for the downloads endpoint.
func (h *Handler) SetDownloads(downloads *shared.Manager) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.downloads = downloads
}
