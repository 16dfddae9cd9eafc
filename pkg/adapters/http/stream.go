package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// Frame is one encoded event waiting to be written to subscribers.
type Frame struct {
	Author string
	Data   []byte
}

// StreamManager fans the events of running turns out to /events subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Frame]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Frame]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for sessionID. The returned func unsubscribes.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Frame, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Frame, 32)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- Frame]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers reports how many listeners follow sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends an encoded event to every listener of sessionID.
// Slow listeners lose frames rather than block the turn.
func (sm *StreamManager) Broadcast(sessionID, author string, data []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- Frame{Author: author, Data: data}:
		default:
			sm.logger.Warn("SSE client buffer full, dropping event", "session_id", sessionID, "author", author)
		}
	}
}

// SubscribeEvents handles GET /events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errStreamingUnsupported)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	var authors map[string]bool
	if raw := r.URL.Query().Get("authors"); raw != "" {
		authors = make(map[string]bool)
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				authors[a] = true
			}
		}
	}

	ch, cancel := s.streams.Subscribe(sessionID)
	defer cancel()

	s.logger.Info("SSE client subscribed", "session_id", sessionID)
	writeStreamHeaders(w)
	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", sessionID)
			return
		case f, ok := <-ch:
			if !ok {
				return
			}
			if authors != nil && !authors[f.Author] {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", f.Data)
			flusher.Flush()
		}
	}
}

func writeStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}
