// ABOUTME: HTTP server wiring routes, middleware, and graceful shutdown
// ABOUTME: Hosts the auth, chat, and health endpoints for chatrelay

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chatrelay/internal/identity"
	"chatrelay/internal/inference"
	"chatrelay/internal/session"
	"chatrelay/internal/store"
)

// Server hosts the chatrelay HTTP API.
type Server struct {
	addr     string
	auth     *identity.Service
	sessions *session.Service
	engine   *inference.Client
	logger   *slog.Logger

	httpServer *http.Server
}

// New creates a Server with all routes registered.
func New(addr string, auth *identity.Service, sessions *session.Service, engine *inference.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:     addr,
		auth:     auth,
		sessions: sessions,
		engine:   engine,
		logger:   logger.With("component", "server"),
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// routes builds the request mux. Health and auth endpoints are open;
// everything under /chats requires a bearer token.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	requireAuth := identity.Middleware(s.auth.Verifier())
	mux.Handle("POST /chats/new", requireAuth(http.HandlerFunc(s.handleCreateChat)))
	mux.Handle("GET /chats", requireAuth(http.HandlerFunc(s.handleListChats)))
	mux.Handle("GET /chats/{id}", requireAuth(http.HandlerFunc(s.handleGetChat)))
	mux.Handle("POST /chats/message", requireAuth(http.HandlerFunc(s.handleSendMessage)))
	mux.Handle("DELETE /chats/{id}", requireAuth(http.HandlerFunc(s.handleDeleteChat)))

	return mux
}

// Handler returns the server's HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails. Shutdown is graceful with a fixed timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case err := <-errCh:
		return err
	}

	// Fresh context: the original one is already canceled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the inference engine answers its health
// probe, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Health(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("inference engine unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// serviceError maps domain errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a generic 500.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, session.ErrMissingChat),
		errors.Is(err, identity.ErrInvalidInput):
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		s.sendJSONError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, store.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, "chat not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		s.sendJSONError(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, inference.ErrTimeout):
		s.sendJSONError(w, http.StatusGatewayTimeout, "inference engine timed out")
	case errors.Is(err, inference.ErrUnreachable), errors.Is(err, inference.ErrUpstream):
		s.sendJSONError(w, http.StatusBadGateway, "inference engine unavailable")
	default:
		s.logger.Error("request failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
