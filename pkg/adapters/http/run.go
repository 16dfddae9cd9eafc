package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/runner"
	"github.com/google/uuid"
)

// Part is one text fragment of a message.
type Part struct {
	Text string `json:"text"`
}

// Content is a message with a role and its parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// RunRequest is the body of POST /run and POST /run_sse.
type RunRequest struct {
	AppName    string         `json:"app_name,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	NewMessage Content        `json:"new_message"`
	State      map[string]any `json:"state,omitempty"`
}

// Text joins the text parts of the message.
func (c Content) Text() string {
	texts := make([]string, 0, len(c.Parts))
	for _, p := range c.Parts {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}

// Event is the wire form of domain.Event.
type Event struct {
	ID              string         `json:"id"`
	InvocationID    string         `json:"invocation_id,omitempty"`
	Author          string         `json:"author"`
	Content         *Content       `json:"content,omitempty"`
	Actions         domain.Actions `json:"actions"`
	IsFinalResponse bool           `json:"is_final_response"`
	TurnComplete    bool           `json:"turn_complete,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// toWire converts a domain event. Events without text carry no content.
func toWire(e domain.Event) Event {
	out := Event{
		ID:              e.ID,
		InvocationID:    e.InvocationID,
		Author:          e.Author,
		Actions:         e.Actions,
		IsFinalResponse: e.IsFinalResponse(),
		TurnComplete:    e.TurnComplete,
		Timestamp:       e.Timestamp,
	}
	if e.Text != "" {
		role := "model"
		if e.Author == domain.AuthorUser {
			role = "user"
		}
		out.Content = &Content{Role: role, Parts: []Part{{Text: e.Text}}}
	}
	return out
}

func (s *Server) decodeRun(w http.ResponseWriter, r *http.Request) (runner.Request, bool) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return runner.Request{}, false
	}
	// The ID is fixed here so /events subscribers can follow a brand new session.
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}
	return runner.Request{
		AppName:   body.AppName,
		UserID:    body.UserID,
		SessionID: body.SessionID,
		Message:   body.NewMessage.Text(),
		State:     body.State,
	}, true
}

// broadcast forwards an event to /events subscribers and returns its encoding.
func (s *Server) broadcast(sessionID string, e domain.Event) ([]byte, error) {
	data, err := json.Marshal(toWire(e))
	if err != nil {
		return nil, err
	}
	s.streams.Broadcast(sessionID, e.Author, data)
	return data, nil
}

// Run handles POST /run.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRun(w, r)
	if !ok {
		return
	}

	res, err := s.assistant.Run(r.Context(), req, func(e domain.Event) error {
		_, err := s.broadcast(req.SessionID, e)
		return err
	})
	if err != nil {
		s.logger.Warn("Run failed", "session_id", req.SessionID, "err", err)
		writeError(w, statusFor(err), err)
		return
	}

	events := make([]Event, 0, len(res.Events))
	for _, e := range res.Events {
		events = append(events, toWire(e))
	}
	w.Header().Set("X-Session-ID", res.SessionID)
	writeJSON(w, http.StatusOK, events)
}

// RunSSE handles POST /run_sse. Headers are only sent with the first event,
// so requests rejected before any step runs still get a proper status code.
func (s *Server) RunSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errStreamingUnsupported)
		return
	}
	req, ok := s.decodeRun(w, r)
	if !ok {
		return
	}

	started := false
	_, err := s.assistant.Run(r.Context(), req, func(e domain.Event) error {
		data, err := s.broadcast(req.SessionID, e)
		if err != nil {
			return err
		}
		if !started {
			started = true
			w.Header().Set("X-Session-ID", req.SessionID)
			writeStreamHeaders(w)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err == nil {
		return
	}

	s.logger.Warn("Streaming run failed", "session_id", req.SessionID, "err", err)
	if !started {
		writeError(w, statusFor(err), err)
		return
	}
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	flusher.Flush()
}
