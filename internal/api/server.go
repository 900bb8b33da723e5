// Package api provides the read-only admin/introspection REST API for
// a RedNet Core node (SPEC_FULL.md §6): DNS cache/registry, dispute
// history, tab/loader state, and search, via a Gin-based HTTP server.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/httptim/rednet-core/internal/api/handlers"
	"github.com/httptim/rednet-core/internal/api/middleware"
	"github.com/httptim/rednet-core/internal/config"
)

// Server is the admin REST API server. It holds no domain state of its
// own; the node wires its live components into Server.Handler() via
// the handler's Set* methods after construction.
//
// Security note: do not expose the API to untrusted networks without an API key.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handler    *handlers.Handler
	engine     *gin.Engine
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(cfg, logger)
	RegisterRoutes(engine, h, cfg)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, handler: h, engine: engine, httpServer: httpServer}
}

// Handler returns the underlying handler so the node composition root
// can wire live components in via its Set* methods.
func (s *Server) Handler() *handlers.Handler {
	return s.handler
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
