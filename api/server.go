// Package api exposes the knowledge assistant over HTTP.
//
// Routes:
//   - POST /api/v1/upload          multipart document ingestion
//   - POST /api/v1/chat            ask a question, get answer + sources
//   - GET  /api/v1/chats           list a user's chats
//   - GET  /api/v1/chats/{id}/messages
//   - DELETE /api/v1/chats/{id}
//   - GET  /health, /ready         probes
//
// Middleware order: recovery -> logging -> rate limit -> handler.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okanon/oracle/internal/history"
	"github.com/okanon/oracle/internal/rag"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout guards against slow-header clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is generous because uploads arrive in the request body.
	ReadTimeout = 120 * time.Second

	// WriteTimeout covers generation latency on the chat endpoint.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second

	defaultRateBurst = 60
)

// ServerConfig collects the server dependencies.
type ServerConfig struct {
	Logger     *slog.Logger
	Assistant  *rag.Service   // required
	History    *history.Store // required
	Pool       *pgxpool.Pool  // optional, enables the /ready DB ping
	TrustProxy bool           // trust X-Real-IP / X-Forwarded-For
	RateBurst  int            // per-IP burst, 0 = default
}

// Server is the HTTP server.
type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	limiter *rateLimiter

	trustProxy bool
}

// NewServer creates a server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Assistant == nil {
		return nil, fmt.Errorf("assistant service is required")
	}
	if cfg.History == nil {
		return nil, fmt.Errorf("history store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:        mux,
		logger:     logger,
		limiter:    newRateLimiter(float64(burst)/60.0, burst),
		trustProxy: cfg.TrustProxy,
	}

	newHealthHandler(cfg.Pool, logger).registerRoutes(mux)
	newUploadHandler(cfg.Assistant, logger).registerRoutes(mux)
	newChatHandler(cfg.Assistant, cfg.History, logger).registerRoutes(mux)

	return s, nil
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		rateLimitMiddleware(s.limiter, s.trustProxy, s.logger),
	)
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
