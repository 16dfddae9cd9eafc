package ports

import (
	"context"

	"github.com/aretw0/scout/pkg/domain"
)

// PromptSource resolves the instruction templates used by the oracle steps.
type PromptSource interface {
	// Prompt returns the prompt registered under name.
	// Returns domain.ErrPromptNotFound if it does not exist.
	Prompt(ctx context.Context, name string) (domain.Prompt, error)

	// ListPrompts returns the names of every available prompt.
	ListPrompts(ctx context.Context) ([]string, error)
}
