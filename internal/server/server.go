// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/madlen-ai/madlen-chat/internal/model"
	"github.com/madlen-ai/madlen-chat/internal/openrouter"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultListen is the default listen address.
	DefaultListen = "127.0.0.1:8000"

	// MaxMessageCount is the maximum number of messages in a chat request.
	MaxMessageCount = 1000

	// MaxRequestBodySize bounds request bodies. Transcripts carry base64
	// images, so this is well above the 5 MB attachment limit.
	MaxRequestBodySize = 32 * 1024 * 1024

	// DefaultSessionTitle is used when POST /sessions has no title.
	DefaultSessionTitle = "New Chat"

	// Version is the gateway version reported by /health.
	Version = "0.3.0"
)

// ============================================================================
// DEPENDENCIES
// ============================================================================

// Upstream is the inference provider the gateway proxies to.
// *openrouter.Client satisfies it.
type Upstream interface {
	IsConfigured() bool
	FreeModels(ctx context.Context) ([]model.ModelInfo, error)
	Chat(ctx context.Context, modelID string, messages []model.Message) (*openrouter.ChatResponse, error)
}

// SessionStore persists sessions and transcripts. *store.Store satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, title, fallback string) (model.Session, error)
	ListSessions(ctx context.Context) ([]model.Session, error)
	GetSession(ctx context.Context, id int64) (model.Session, error)
	AppendMessages(ctx context.Context, sessionID int64, msgs ...model.Message) error
	Messages(ctx context.Context, sessionID int64) ([]model.Message, error)
}

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats tracks gateway usage.
type Stats struct {
	TotalRequests  atomic.Int64
	ChatRequests   atomic.Int64
	UpstreamErrors atomic.Int64
	RateLimited    atomic.Int64
	StartTime      time.Time
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TotalRequests  int64 `json:"total_requests"`
	ChatRequests   int64 `json:"chat_requests"`
	UpstreamErrors int64 `json:"upstream_errors"`
	RateLimited    int64 `json:"rate_limited"`
	UptimeSeconds  int64 `json:"uptime_seconds"`
}

// NewStats creates a Stats starting now.
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalRequests:  s.TotalRequests.Load(),
		ChatRequests:   s.ChatRequests.Load(),
		UpstreamErrors: s.UpstreamErrors.Load(),
		RateLimited:    s.RateLimited.Load(),
		UptimeSeconds:  int64(time.Since(s.StartTime).Seconds()),
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	// Listen is the host:port to bind. Empty means DefaultListen.
	Listen string

	// AllowedOrigins lists CORS origins. Empty means the default dev origin.
	AllowedOrigins []string

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit float64

	// RateBurst is the per-IP burst size.
	RateBurst int

	// DefaultSessionTitle names sessions created without a title.
	DefaultSessionTitle string

	// Logger receives request and error logs.
	Logger *zap.Logger
}

// Server is the HTTP gateway.
type Server struct {
	upstream Upstream
	store    SessionStore
	opts     Options
	logger   *zap.Logger
	stats    *Stats
	limiter  *RateLimiter
	router   chi.Router
	server   *http.Server
}

// New creates a Server backed by upstream and st.
func New(upstream Upstream, st SessionStore, opts Options) *Server {
	if opts.Listen == "" {
		opts.Listen = DefaultListen
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = DefaultCORSConfig().AllowedOrigins
	}
	if opts.DefaultSessionTitle == "" {
		opts.DefaultSessionTitle = DefaultSessionTitle
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		upstream: upstream,
		store:    st,
		opts:     opts,
		logger:   opts.Logger,
		stats:    NewStats(),
	}
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(opts.RateLimit, opts.RateBurst)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stats returns the server's usage counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// routes builds the chi router and its middleware stack.
func (s *Server) routes() chi.Router {
	cors := DefaultCORSConfig()
	cors.AllowedOrigins = s.opts.AllowedOrigins

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(LoggingMiddleware(s.logger))
	r.Use(CORSMiddleware(cors))
	r.Use(s.countRequests)
	if s.limiter != nil {
		r.Use(RateLimitMiddleware(s.limiter, s.stats))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/models", s.handleModels)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)
		r.Get("/{id}/messages", s.handleSessionMessages)
	})
	r.Post("/chat", s.handleChat)
	return r
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.stats.TotalRequests.Add(1)
		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("version", Version),
			zap.Bool("upstream_configured", s.upstream.IsConfigured()))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

// errorBody is the FastAPI-style error envelope the client parses.
type errorBody struct {
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a {"detail": message} error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Detail: message})
}
