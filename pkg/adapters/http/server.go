// Package http exposes the dialog engine over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/dialog"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Engine is the subset of parley.Engine the server needs.
type Engine interface {
	Handle(ctx context.Context, conversationID, text string) (*parley.Reply, error)
	Greet(ctx context.Context, conversationID string) (*parley.Reply, error)
	State(ctx context.Context, conversationID string) (*domain.ConversationState, error)
	Delete(ctx context.Context, conversationID string) error
	List(ctx context.Context) ([]string, error)
}

// Server holds the HTTP handlers.
type Server struct {
	engine   Engine
	streams  *StreamManager
	logger   *slog.Logger
	metrics  http.Handler
	maxInput int
	newID    func() string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxInput overrides the message size limit.
func WithMaxInput(limit int) Option {
	return func(s *Server) {
		s.maxInput = limit
	}
}

// WithIDGenerator replaces the UUID generator used by POST /conversations.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		s.newID = fn
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.ListConversations)
		r.Post("/", s.CreateConversation)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetConversation)
			r.Delete("/", s.DeleteConversation)
			r.Post("/start", s.StartConversation)
			r.Post("/messages", s.SendMessage)
			r.Get("/events", s.SubscribeEvents)
		})
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

// MessageRequest is the body of POST /conversations/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// CreateRequest is the optional body of POST /conversations.
type CreateRequest struct {
	ID string `json:"id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": strings.TrimSpace(parley.Version),
	})
}

// ListConversations handles GET /conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"conversations": ids})
}

// CreateConversation handles POST /conversations: it opens a conversation and returns the greeting.
func (s *Server) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	id := body.ID
	if id == "" {
		id = s.newID()
	}

	reply, err := s.engine.Greet(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.streams.Broadcast(id, reply)
	w.Header().Set("Location", "/conversations/"+id)
	s.writeJSON(w, http.StatusCreated, reply)
}

// StartConversation handles POST /conversations/{id}/start.
func (s *Server) StartConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reply, err := s.engine.Greet(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.streams.Broadcast(id, reply)
	s.writeJSON(w, http.StatusOK, reply)
}

// SendMessage handles POST /conversations/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.WarnContext(r.Context(), "invalid request body", "err", err)
		return
	}

	text, err := runner.SanitizeInputLimit(body.Text, s.maxInput)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		s.logger.WarnContext(r.Context(), "input rejected", "err", err, "size", len(body.Text))
		return
	}

	reply, err := s.engine.Handle(r.Context(), id, text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.streams.Broadcast(id, reply)
	s.writeJSON(w, http.StatusOK, reply)
}

// GetConversation handles GET /conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// DeleteConversation handles DELETE /conversations/{id}.
func (s *Server) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps engine errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmptyConversationID):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dialog.ErrUnknownAction):
		s.logger.ErrorContext(r.Context(), "turn aborted", "err", err)
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "err", err, "path", r.URL.Path)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
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
