package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trendbrief/internal/config"
	"trendbrief/internal/core"
	"trendbrief/internal/logger"
)

// Server serves one digest snapshot read-only over HTTP
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	digest     core.Digest
	config     config.Server
	startedAt  time.Time
	log        *slog.Logger
}

// New creates a new HTTP server instance over d. The digest is held by value
// and never modified.
func New(d core.Digest, cfg config.Server) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		digest:    d,
		config:    cfg,
		startedAt: time.Now(),
		log:       logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(securityHeaders)
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/digest", func(r chi.Router) {
			r.Get("/", s.handleGetDigest)
			r.Get("/exclusives", s.handleExclusives)
			r.Get("/stories/{rank}", s.handleGetStory)
			r.Get("/stories/{rank}/appearances", s.handleAppearances)
		})
	})

	s.router.Get("/digest.md", s.handleMarkdown)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "addr", s.httpServer.Addr, "digest", s.digest.ID)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
