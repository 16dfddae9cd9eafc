package domain

import "time"

// Session is the durable record of a conversation.
// State holds the snapshot of the most recent turn and is informational only:
// every turn starts from a fresh Interaction State.
type Session struct {
	ID        string         `json:"id"`
	AppName   string         `json:"app_name"`
	UserID    string         `json:"user_id"`
	State     map[string]any `json:"state,omitempty"`
	Events    []Event        `json:"events,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewSession creates an empty session.
func NewSession(id, appName, userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		AppName:   appName,
		UserID:    userID,
		State:     make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds an event to the session log.
func (s *Session) Append(e Event) {
	s.Events = append(s.Events, e)
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a copy that does not share the event slice or state map.
func (s *Session) Clone() *Session {
	out := *s
	out.State = make(map[string]any, len(s.State))
	for k, v := range s.State {
		out.State[k] = v
	}
	out.Events = make([]Event, len(s.Events))
	copy(out.Events, s.Events)
	return &out
}

// Prompt is a named instruction template for one step.
type Prompt struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`
	Instruction string `json:"instruction" yaml:"instruction"`
}
