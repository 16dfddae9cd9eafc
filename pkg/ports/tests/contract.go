package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// PromptSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.PromptSource.
// expected maps prompt names to the instruction each one must resolve to.
func PromptSourceContractTest(t *testing.T, src ports.PromptSource, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Prompt_Success", func(t *testing.T) {
		for name, instruction := range expected {
			p, err := src.Prompt(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting prompt %s: %v", name, err)
			}
			if p.Name != name {
				t.Errorf("name mismatch: got %q, want %q", p.Name, name)
			}
			if p.Instruction != instruction {
				t.Errorf("instruction mismatch for %s. got %q, want %q", name, p.Instruction, instruction)
			}
		}
	})

	t.Run("Prompt_NotFound", func(t *testing.T) {
		_, err := src.Prompt(ctx, "non-existent-prompt")
		if !errors.Is(err, domain.ErrPromptNotFound) {
			t.Errorf("expected ErrPromptNotFound, got %v", err)
		}
	})

	t.Run("ListPrompts", func(t *testing.T) {
		names, err := src.ListPrompts(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing prompts: %v", err)
		}
		found := make(map[string]bool, len(names))
		for _, n := range names {
			found[n] = true
		}
		for name := range expected {
			if !found[name] {
				t.Errorf("expected prompt %s in list %v", name, names)
			}
		}
	})
}
