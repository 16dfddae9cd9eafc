package memory

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"github.com/aretw0/scout/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultCatalog []byte

// Prompts implements ports.PromptSource using an in-memory map.
type Prompts struct {
	prompts map[string]domain.Prompt
}

// NewPrompts creates a catalog from domain objects.
func NewPrompts(prompts ...domain.Prompt) *Prompts {
	p := &Prompts{prompts: make(map[string]domain.Prompt, len(prompts))}
	for _, prompt := range prompts {
		p.prompts[prompt.Name] = prompt
	}
	return p
}

// ParsePrompts reads a YAML (or JSON) catalog of the form {prompts: [...]}.
func ParsePrompts(data []byte) (*Prompts, error) {
	var catalog struct {
		Prompts []domain.Prompt `yaml:"prompts"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}
	for i, p := range catalog.Prompts {
		if p.Name == "" {
			return nil, fmt.Errorf("prompt #%d has no name", i)
		}
	}
	return NewPrompts(catalog.Prompts...), nil
}

// DefaultPrompts returns the catalog shipped with Scout.
func DefaultPrompts() *Prompts {
	p, err := ParsePrompts(defaultCatalog)
	if err != nil {
		panic(err) // the embedded catalog is covered by tests
	}
	return p
}

// Prompt returns the prompt registered under name.
func (p *Prompts) Prompt(ctx context.Context, name string) (domain.Prompt, error) {
	prompt, ok := p.prompts[name]
	if !ok {
		return domain.Prompt{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, name)
	}
	return prompt, nil
}

// ListPrompts returns all prompt names in sorted order.
func (p *Prompts) ListPrompts(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(p.prompts))
	for k := range p.prompts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
