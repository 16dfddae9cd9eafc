// Package registry resolves prompts from layered sources.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// Registry manages the available prompts.
// Registered prompts take precedence over the layers, and earlier layers
// take precedence over later ones.
type Registry struct {
	mu        sync.RWMutex
	overrides map[string]domain.Prompt
	layers    []ports.PromptSource
}

// NewRegistry creates a registry over the given layers, highest priority first.
func NewRegistry(layers ...ports.PromptSource) *Registry {
	return &Registry{
		overrides: make(map[string]domain.Prompt),
		layers:    layers,
	}
}

// Register adds a prompt above every layer.
// If a prompt with the same name exists, it is overwritten.
func (r *Registry) Register(p domain.Prompt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[p.Name] = p
}

// Prompt looks up a prompt by name.
// A layer failing with anything other than ErrPromptNotFound aborts the lookup.
func (r *Registry) Prompt(ctx context.Context, name string) (domain.Prompt, error) {
	r.mu.RLock()
	p, ok := r.overrides[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	for _, layer := range r.layers {
		p, err := layer.Prompt(ctx, name)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrPromptNotFound) {
			return domain.Prompt{}, err
		}
	}
	return domain.Prompt{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, name)
}

// ListPrompts returns the union of all names, sorted.
func (r *Registry) ListPrompts(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)

	r.mu.RLock()
	for name := range r.overrides {
		seen[name] = true
	}
	r.mu.RUnlock()

	for _, layer := range r.layers {
		names, err := layer.ListPrompts(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			seen[n] = true
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}
