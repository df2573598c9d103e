// Package server provides the gateway's HTTP surface: the inference API on
// the main port and health/metrics on the management port.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmhub/gateway/pkg/state"
)

// shutdownTimeout bounds the drain of in-flight requests on shutdown.
const shutdownTimeout = 30 * time.Second

// Server is the gateway HTTP server pair.
type Server struct {
	store  *state.Store
	logger *slog.Logger

	apiServer  *http.Server
	mgmtServer *http.Server

	shutdownOnce sync.Once
}

// New builds a server over the given snapshot store.
func New(store *state.Store, logger *slog.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Start listens on both ports and blocks until a shutdown signal or a fatal
// listener error. In-flight requests drain before Start returns.
func (s *Server) Start(ctx context.Context, port, managementPort int) error {
	s.apiServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.routes(),
		// No WriteTimeout: streaming responses are open-ended.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mgmtServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", managementPort),
		Handler:           s.managementRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		s.logger.Info("api server listening", "addr", s.apiServer.Addr)
		if err := s.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		s.logger.Info("management server listening", "addr", s.mgmtServer.Addr)
		if err := s.mgmtServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("management server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
}

// Shutdown drains both servers, at most once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		for _, srv := range []*http.Server{s.apiServer, s.mgmtServer} {
			if srv == nil {
				continue
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("server shutdown error", "addr", srv.Addr, "error", err)
				shutdownErr = err
			}
		}
		s.logger.Info("gateway stopped")
	})
	return shutdownErr
}

// routes builds the inference API handler with the middleware chain.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat/completions", s.handleChat)
	mux.HandleFunc("POST /api/v1/completions", s.handleCompletion)
	mux.HandleFunc("POST /api/v1/embeddings", s.handleEmbeddings)
	// Health and metrics are served on both ports: probes against the
	// gateway port and scrapes against the management port.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = loggingMiddleware(s.logger, handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(s.logger, handler)
	return handler
}

// Handler exposes the API handler for tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// managementRoutes serves health and metrics.
func (s *Server) managementRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ManagementHandler exposes the management handler for tests.
func (s *Server) ManagementHandler() http.Handler {
	return s.managementRoutes()
}

// handleHealth reports 200 once a snapshot is installed, 503 before.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.store.Current() == nil {
		http.Error(w, "configuration not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
