package flow

import (
	"context"
	"fmt"
)

// Sequential runs its steps strictly in order over the same invocation.
// There is no rollback: the first failing step aborts the sequence.
type Sequential struct {
	name  string
	steps []Step
}

// NewSequential composes steps into a sequence called name.
func NewSequential(name string, steps ...Step) *Sequential {
	return &Sequential{name: name, steps: steps}
}

// Name returns the composer name.
func (s *Sequential) Name() string { return s.name }

// Run executes every step in order.
func (s *Sequential) Run(ctx context.Context, inv *Invocation) error {
	for _, step := range s.steps {
		if err := RunStep(ctx, step, inv); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}
