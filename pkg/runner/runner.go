package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/aretw0/scout/pkg/session"
	"github.com/google/uuid"
)

// DefaultAppName labels sessions created without an explicit application name.
const DefaultAppName = "ResearchTeam"

// Request is one user turn.
type Request struct {
	AppName   string
	UserID    string
	SessionID string
	Message   string
	// State seeds the Interaction State of the turn.
	State map[string]any
}

// Result is the outcome of a turn.
type Result struct {
	SessionID    string         `json:"session_id"`
	InvocationID string         `json:"invocation_id"`
	Intent       string         `json:"intent,omitempty"`
	FinalText    string         `json:"final_text"`
	Events       []domain.Event `json:"events"`
	State        map[string]any `json:"state,omitempty"`
}

// Rounds reports how many research rounds the turn ran.
func (r *Result) Rounds() int {
	report, _ := domain.Lookup[domain.LoopReport](domain.NewState(r.State), domain.KeyResearchOutcome)
	return report.Rounds
}

// Sources returns the sources cited by the final answer, never nil.
func (r *Result) Sources() []domain.Source {
	if sources, ok := domain.Lookup[[]domain.Source](domain.NewState(r.State), domain.KeyCitedSources); ok {
		return sources
	}
	return []domain.Source{}
}

// TurnObserver is notified once per turn, after the session was saved.
type TurnObserver func(ctx context.Context, res *Result, err error)

// Runner binds a root step to a session manager.
type Runner struct {
	root     flow.Step
	sessions *session.Manager

	appName  string
	maxInput int
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	observer TurnObserver
	now      func() time.Time
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHooks registers lifecycle hooks on every invocation.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithAppName sets the application name recorded on new sessions.
func WithAppName(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.appName = name
		}
	}
}

// WithMaxInputSize overrides the message size limit read from the environment.
func WithMaxInputSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxInput = n
		}
	}
}

// WithTurnObserver is called after every turn.
func WithTurnObserver(fn TurnObserver) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// New creates a Runner for root.
func New(root flow.Step, sessions *session.Manager, opts ...Option) *Runner {
	r := &Runner{
		root:     root,
		sessions: sessions,
		appName:  DefaultAppName,
		maxInput: maxInputSize(),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sessions returns the session manager used by the runner.
func (r *Runner) Sessions() *session.Manager {
	return r.sessions
}

// Run executes one turn. When req.SessionID is empty a new session is created.
// Events are forwarded to sink, if any, as soon as they are recorded.
// A failing sink aborts the turn.
func (r *Runner) Run(ctx context.Context, req Request, sink flow.Sink) (*Result, error) {
	message, err := sanitize(req.Message, r.maxInput)
	if err != nil {
		return nil, err
	}
	if message == "" {
		return nil, domain.ErrEmptyInput
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	appName := req.AppName
	if appName == "" {
		appName = r.appName
	}

	res := &Result{SessionID: sessionID}
	init := func() *domain.Session {
		return domain.NewSession(sessionID, appName, req.UserID)
	}

	err = r.sessions.WithSession(ctx, sessionID, init, func(ctx context.Context, s *domain.Session) error {
		return r.turn(ctx, s, message, req.State, sink, res)
	})

	logger := r.logger.With("session_id", sessionID, "invocation_id", res.InvocationID)
	if err != nil {
		logger.Error("Turn failed", "err", err)
	} else {
		logger.Info("Turn completed", "intent", res.Intent, "events", len(res.Events))
	}

	if r.observer != nil {
		r.observer(ctx, res, err)
	}
	return res, err
}

func (r *Runner) turn(ctx context.Context, s *domain.Session, message string, seed map[string]any, sink flow.Sink, res *Result) error {
	state := domain.NewState(seed)

	record := func(e domain.Event) error {
		s.Append(e)
		res.Events = append(res.Events, e)
		if e.IsFinalResponse() {
			res.FinalText = e.Text
		}
		if sink != nil {
			return sink(e)
		}
		return nil
	}

	inv := flow.NewInvocation(message, state,
		flow.WithSessionID(s.ID),
		flow.WithSink(record),
		flow.WithHooks(r.hooks),
		flow.WithLogger(r.logger.With("session_id", s.ID)),
	)
	res.InvocationID = inv.ID

	// The user message is recorded before any step runs.
	userEvent := domain.NewEvent(domain.AuthorUser, message).WithDelta(map[string]any{
		domain.KeyUserQuestion: message,
	})
	userEvent.Timestamp = r.now().UTC()
	if err := inv.Emit(userEvent); err != nil {
		return err
	}

	runErr := flow.RunStep(ctx, r.root, inv)

	res.State = state.Snapshot()
	res.Intent = state.String(domain.KeyIntent)
	s.State = res.State

	if runErr != nil {
		return fmt.Errorf("%s: %w", r.root.Name(), runErr)
	}
	return nil
}
