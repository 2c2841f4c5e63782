package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/auraflow/internal/compiler"
	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/internal/runtime"
	"github.com/aretw0/auraflow/pkg/domain"
)

// Engine is the part of the flow engine the chat widget talks to.
type Engine interface {
	HandleMessage(ctx context.Context, sessionID, text string) (*runtime.Reply, error)
	Open(ctx context.Context, sessionID string) (*runtime.Reply, error)
	Reset(ctx context.Context, sessionID string) error
	Close(ctx context.Context, sessionID string) error
	Conversation(ctx context.Context, sessionID string) (*domain.Conversation, error)
	Published(ctx context.Context) (*domain.Published, error)
}

// Server serves the chat API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
	version string
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h (usually promhttp) on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger configures a logger for the Server.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStreams shares a StreamManager, typically one already bound to the
// engine's OnEntry hook.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// WorkflowResponse is the body of GET /workflow.
type WorkflowResponse struct {
	Version     domain.GraphVersion `json:"version"`
	Fingerprint string              `json:"fingerprint"`
	Document    any                 `json:"document"`
	Issues      []string            `json:"issues,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/workflow", s.GetWorkflow)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Delete("/", s.CloseSession)
		r.Post("/messages", s.PostMessage)
		r.Post("/open", s.OpenSession)
		r.Post("/reset", s.ResetSession)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostMessage handles POST /sessions/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("PostMessage: invalid request body", "err", err)
		return
	}

	reply, err := s.Engine.HandleMessage(r.Context(), sessionID, body.Text)
	if err != nil {
		s.fail(w, "HandleMessage", sessionID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

// OpenSession handles POST /sessions/{id}/open.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	reply, err := s.Engine.Open(r.Context(), sessionID)
	if err != nil {
		s.fail(w, "Open", sessionID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

// ResetSession handles POST /sessions/{id}/reset.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.Engine.Reset(r.Context(), sessionID); err != nil {
		s.fail(w, "Reset", sessionID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.Engine.Close(r.Context(), sessionID); err != nil {
		s.fail(w, "Close", sessionID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	conv, err := s.Engine.Conversation(r.Context(), sessionID)
	if err != nil {
		s.fail(w, "Conversation", sessionID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, conv)
}

// GetWorkflow handles GET /workflow: the published document in editor form.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	p, err := s.Engine.Published(r.Context())
	if err != nil {
		s.fail(w, "Published", "", err)
		return
	}
	resp := WorkflowResponse{
		Version:     p.Version,
		Fingerprint: p.Version.Fingerprint(),
		Document:    compiler.Document(p.Graph),
	}
	for _, issue := range p.Graph.Validate() {
		resp.Issues = append(resp.Issues, issue.String())
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"app":     "auraflow-http",
		"version": strings.TrimSpace(s.version),
	})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE): every transcript
// entry of the session, including those produced later by timers.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: entry\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// statusOf maps engine errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, runtime.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, runtime.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, runtime.ErrEngineClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSessionNotFound), domain.IsNotPublished(err):
		return http.StatusNotFound
	case domain.IsMalformedGraph(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op, sessionID string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "session_id", sessionID, "err", err)
	} else {
		s.logger.Debug(op+" rejected", "session_id", sessionID, "err", err)
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
