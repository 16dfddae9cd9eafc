package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/google/uuid"
)

// Step is one unit of orchestration logic.
type Step interface {
	Name() string
	Run(ctx context.Context, inv *Invocation) error
}

// Sink receives every event emitted during an invocation.
type Sink func(domain.Event) error

// funcStep adapts a function to the Step interface.
type funcStep struct {
	name string
	fn   func(context.Context, *Invocation) error
}

// StepFunc wraps fn as a Step called name.
func StepFunc(name string, fn func(ctx context.Context, inv *Invocation) error) Step {
	return &funcStep{name: name, fn: fn}
}

func (s *funcStep) Name() string { return s.name }

func (s *funcStep) Run(ctx context.Context, inv *Invocation) error { return s.fn(ctx, inv) }

// Invocation is the explicit context of one user turn.
// It owns the Interaction State and is passed by pointer to every step.
type Invocation struct {
	ID          string
	SessionID   string
	UserContent string
	State       *domain.State

	sink      Sink
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	escalated bool
}

// InvocationOption configures an Invocation.
type InvocationOption func(*Invocation)

// WithSink forwards emitted events to sink.
func WithSink(sink Sink) InvocationOption {
	return func(inv *Invocation) {
		inv.sink = sink
	}
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) InvocationOption {
	return func(inv *Invocation) {
		inv.hooks = hooks
	}
}

// WithLogger sets the logger used by steps.
func WithLogger(logger *slog.Logger) InvocationOption {
	return func(inv *Invocation) {
		inv.logger = logger
	}
}

// WithInvocationID overrides the generated invocation ID.
func WithInvocationID(id string) InvocationOption {
	return func(inv *Invocation) {
		inv.ID = id
	}
}

// WithSessionID ties the invocation to a session.
func WithSessionID(id string) InvocationOption {
	return func(inv *Invocation) {
		inv.SessionID = id
	}
}

// NewInvocation creates the context of a turn. A nil state starts empty.
func NewInvocation(userContent string, state *domain.State, opts ...InvocationOption) *Invocation {
	if state == nil {
		state = domain.NewState(nil)
	}
	inv := &Invocation{
		ID:          uuid.NewString(),
		UserContent: userContent,
		State:       state,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Emit records an event: it stamps identifiers, applies the state delta,
// notes escalation and forwards the event to the sink.
func (inv *Invocation) Emit(e domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.InvocationID = inv.ID
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	inv.State.Apply(e.Actions.StateDelta)
	if e.Actions.Escalate {
		inv.escalated = true
	}

	if inv.sink == nil {
		return nil
	}
	return inv.sink(e)
}

// Escalated reports whether a step asked the enclosing loop to stop.
func (inv *Invocation) Escalated() bool {
	return inv.escalated
}

// Logger returns the invocation logger.
func (inv *Invocation) Logger() *slog.Logger {
	return inv.logger
}

// Hooks returns the registered lifecycle hooks.
func (inv *Invocation) Hooks() domain.LifecycleHooks {
	return inv.hooks
}

func (inv *Invocation) base(t domain.HookType) domain.HookBase {
	return domain.HookBase{Timestamp: time.Now(), Type: t, InvocationID: inv.ID}
}

// RunStep runs step and fires the step lifecycle hooks around it.
func RunStep(ctx context.Context, step Step, inv *Invocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if inv.hooks.OnStepStart != nil {
		inv.hooks.OnStepStart(ctx, &domain.StepEvent{HookBase: inv.base(domain.HookStepStart), Step: step.Name()})
	}

	start := time.Now()
	err := step.Run(ctx, inv)

	if inv.hooks.OnStepEnd != nil {
		inv.hooks.OnStepEnd(ctx, &domain.StepEvent{
			HookBase: inv.base(domain.HookStepEnd),
			Step:     step.Name(),
			Duration: time.Since(start),
			Err:      err,
		})
	}
	return err
}
