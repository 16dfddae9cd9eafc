package domain

import "time"

// Actions are the side effects carried by an event.
type Actions struct {
	// StateDelta is merged into the Interaction State when the event is emitted.
	// A nil value deletes the key.
	StateDelta map[string]any `json:"state_delta,omitempty"`

	// Escalate asks the nearest enclosing loop to stop.
	Escalate bool `json:"escalate,omitempty"`
}

// Event is the Step Result Record: what a step reports back while running.
type Event struct {
	ID           string    `json:"id"`
	InvocationID string    `json:"invocation_id"`
	Author       string    `json:"author"`
	Text         string    `json:"text,omitempty"`
	Actions      Actions   `json:"actions"`
	Final        bool      `json:"final,omitempty"`
	TurnComplete bool      `json:"turn_complete,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// AuthorUser is the author label of the event recording the user message.
const AuthorUser = "user"

// NewEvent creates an event with a text body.
func NewEvent(author, text string) Event {
	return Event{Author: author, Text: text}
}

// WithDelta returns a copy of the event carrying the given state delta.
func (e Event) WithDelta(delta map[string]any) Event {
	e.Actions.StateDelta = delta
	return e
}

// IsFinalResponse reports whether the event carries the answer shown to the user.
func (e Event) IsFinalResponse() bool {
	return e.Final
}
