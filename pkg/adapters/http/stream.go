package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/parley"
	"github.com/go-chi/chi/v5"
)

// StreamManager fans turn replies out to Server-Sent Events subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // conversation ID -> channels
	logger      *slog.Logger
}

// NewStreamManager creates a manager that reports dropped events to logger.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for a conversation. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(conversationID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[conversationID]; !ok {
		sm.subscribers[conversationID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[conversationID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[conversationID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, conversationID)
			}
		}
	}
}

// Broadcast sends the reply to every subscriber of its conversation. Slow subscribers miss events.
func (sm *StreamManager) Broadcast(conversationID string, reply *parley.Reply) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs, ok := sm.subscribers[conversationID]
	if !ok {
		return
	}
	payload, err := json.Marshal(reply)
	if err != nil {
		sm.logger.Error("sse: failed to encode reply", "conversation_id", conversationID, "err", err)
		return
	}
	for ch := range subs {
		select {
		case ch <- string(payload):
		default:
			sm.logger.Warn("sse: client buffer full, dropping message", "conversation_id", conversationID)
		}
	}
}

// SubscribeEvents handles GET /conversations/{id}/events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	ch, cancel := s.streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.InfoContext(r.Context(), "sse subscribed", "conversation_id", id)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reply\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
