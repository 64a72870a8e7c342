// Package web serves a small read-only JSON API over the verification
// run history.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kagawa-dx/bosaictl/internal/history"
)

// Config holds configuration for the status server.
type Config struct {
	Port      int
	AuthToken string
}

// Server is the status API backend.
type Server struct {
	logger *zap.Logger
	db     *history.DB
	cfg    Config
	server *http.Server
}

// NewServer creates a new status server.
func NewServer(logger *zap.Logger, db *history.DB, cfg Config) *Server {
	s := &Server{
		logger: logger,
		db:     db,
		cfg:    cfg,
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Router(),
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/api/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/api/runs", s.handleListRuns)
		r.Get("/api/runs/{id}", s.handleGetRun)
	})

	return r
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down status server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
