// Package server provides the HTTP API for shinsa.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/shinsa/internal/config"
	"github.com/hyperjump/shinsa/internal/service"
	"go.uber.org/zap"
)

// Server is the HTTP server for the shinsa API.
type Server struct {
	svc    *service.Service
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(svc *service.Service, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:    svc,
		config: cfg,
		logger: logger,
	}
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.config.Server.RequestTimeoutSeconds) * time.Second))

	r.Post("/api/v1/compliance", s.handleCompliance)
	r.Get("/api/v1/reports", s.handleListReports)
	r.Get("/api/v1/reports/{id}", s.handleGetReport)
	r.Delete("/api/v1/reports/{id}", s.handleDeleteReport)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
