package domain

// State is the Interaction State of one user turn.
// It is created when the turn starts, threaded through every step by the
// invocation and discarded when the turn ends. Steps run one at a time, so
// State is not safe for concurrent use.
type State struct {
	values map[string]any
}

// NewState creates a state seeded with a copy of initial.
func NewState(initial map[string]any) *State {
	s := &State{values: make(map[string]any, len(initial))}
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

// Get returns the raw value stored under key.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key if it is a string, or "".
func (s *State) String(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Strings returns the value under key as a string slice.
// Slices decoded from JSON ([]any) are converted element by element.
func (s *State) Strings(key string) []string {
	switch v := s.values[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Set stores value under key. A nil value removes the key.
func (s *State) Set(key string, value any) {
	if value == nil {
		delete(s.values, key)
		return
	}
	s.values[key] = value
}

// Apply merges a state delta. Keys mapped to nil are deleted.
func (s *State) Apply(delta map[string]any) {
	for k, v := range delta {
		s.Set(k, v)
	}
}

// Snapshot returns a shallow copy of the current values.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Lookup reads a typed value from the state.
// It reports false when the key is missing or holds a different type.
func Lookup[T any](s *State, key string) (T, bool) {
	v, ok := s.values[key].(T)
	return v, ok
}
