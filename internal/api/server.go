// Package api exposes the order CRUD surface over HTTP. The matcher never
// calls into this package; it shares only the repository handle.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"conditional_orderbook/internal/config"
	"conditional_orderbook/internal/core"
)

// Server serves the order API
type Server struct {
	repo   core.IOrderRepository
	logger core.ILogger
	cfg    config.ServerConfig
	srv    *http.Server
}

// NewServer creates an API server over the shared repository handle
func NewServer(cfg config.ServerConfig, repo core.IOrderRepository, logger core.ILogger) *Server {
	s := &Server{
		repo:   repo,
		logger: logger,
		cfg:    cfg,
	}

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", s.handleCreateOrder)
	mux.HandleFunc("GET /orders", s.handleListOrders)
	mux.HandleFunc("GET /orders/{id}", s.handleGetOrder)
	mux.HandleFunc("PUT /orders/{id}/status", s.handleSetOrderStatus)
	mux.HandleFunc("DELETE /orders/{id}", s.handleDeleteOrder)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.logRequests(mux)
}

// Start runs the server until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", s.cfg.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		return s.Stop(context.Background())
	}
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// statusRecorder captures the response code for the request log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr)
	})
}
