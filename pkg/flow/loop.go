package flow

import (
	"context"
	"fmt"

	"github.com/aretw0/scout/pkg/domain"
)

// DefaultMaxIterations bounds a Loop built without WithMaxIterations.
const DefaultMaxIterations = 3

// Loop repeats its steps until one of them escalates or the round bound is reached.
//
// It is a small state machine: it starts in LoopIterating and ends in either
// LoopConverged (a step escalated) or LoopExhausted (the bound was hit).
// The bound always applies, whatever the steps report.
type Loop struct {
	name       string
	steps      []Step
	max        int
	outcomeKey string
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithMaxIterations sets the round bound. Values below 1 keep the default.
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.max = n
		}
	}
}

// WithOutcomeKey writes a domain.LoopReport to key when the loop ends.
func WithOutcomeKey(key string) LoopOption {
	return func(l *Loop) {
		l.outcomeKey = key
	}
}

// NewLoop creates a bounded loop over steps.
func NewLoop(name string, steps []Step, opts ...LoopOption) *Loop {
	l := &Loop{name: name, steps: steps, max: DefaultMaxIterations}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the loop name.
func (l *Loop) Name() string { return l.name }

// MaxIterations returns the round bound.
func (l *Loop) MaxIterations() int { return l.max }

// Run executes rounds until the loop reaches a terminal state.
func (l *Loop) Run(ctx context.Context, inv *Invocation) error {
	inv.escalated = false
	defer func() { inv.escalated = false }()

	state := domain.LoopIterating
	round := 0
	for state == domain.LoopIterating {
		round++
		l.fire(ctx, inv, round, domain.LoopIterating)

		for _, step := range l.steps {
			if err := RunStep(ctx, step, inv); err != nil {
				return fmt.Errorf("%s round %d: %s: %w", l.name, round, step.Name(), err)
			}
			if inv.escalated {
				break
			}
		}
		state = l.transition(round, inv.escalated)
	}

	inv.Logger().Debug("Loop finished", "loop", l.name, "rounds", round, "outcome", state)
	l.fire(ctx, inv, round, state)

	if l.outcomeKey == "" {
		return nil
	}
	return inv.Emit(domain.Event{
		Author: l.name,
		Actions: domain.Actions{StateDelta: map[string]any{
			l.outcomeKey: domain.LoopReport{Outcome: state, Rounds: round},
		}},
	})
}

// transition computes the state after a completed round.
func (l *Loop) transition(round int, escalated bool) domain.LoopOutcome {
	switch {
	case escalated:
		return domain.LoopConverged
	case round >= l.max:
		return domain.LoopExhausted
	default:
		return domain.LoopIterating
	}
}

func (l *Loop) fire(ctx context.Context, inv *Invocation, round int, outcome domain.LoopOutcome) {
	if inv.hooks.OnLoopIteration == nil {
		return
	}
	inv.hooks.OnLoopIteration(ctx, &domain.LoopEvent{
		HookBase:  inv.base(domain.HookLoopRound),
		Loop:      l.name,
		Iteration: round,
		Max:       l.max,
		Outcome:   outcome,
	})
}
