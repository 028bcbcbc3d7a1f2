// Package server exposes the question-answering pipeline over HTTP:
// a streaming chat endpoint, a websocket variant, and session history
// management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/raphaelgruber/podrag-go/internal/metrics"
	"github.com/raphaelgruber/podrag-go/internal/models"
)

// QueryPipeline is the pipeline capability the server fronts.
type QueryPipeline interface {
	Answer(ctx context.Context, q models.Query, onToken func(token string) error) (string, error)
	PurgeHistory(ctx context.Context, sessionID string) error
	Metrics() *metrics.Collector
}

// shutdownTimeout bounds graceful shutdown; in-flight generations get
// this long to finish streaming.
const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server with dependencies and lifecycle management.
type Server struct {
	pipeline     QueryPipeline
	defaultModel string
	logger       *slog.Logger
	http         *http.Server
}

// New creates the server listening on addr.
func New(addr string, pipeline QueryPipeline, defaultModel string, logger *slog.Logger) *Server {
	s := &Server{
		pipeline:     pipeline,
		defaultModel: defaultModel,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/ws", s.handleChatWS)
	mux.HandleFunc("DELETE /api/history/{sessionId}", s.handleDeleteHistory)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           loggingMiddleware(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run starts the server and blocks until the context is cancelled or
// the listener fails. Cancellation triggers graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Handler exposes the configured handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
