// Package loam serves prompts from a directory of Markdown documents.
//
// Each document is one prompt: the front matter carries its metadata and the
// body is the instruction. The prompt name is the front matter id, or the
// file name without its extension.
//
//	---
//	description: Writes the final cited answer.
//	model: gemini-2.5-pro
//	---
//	You are a research report writer...
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/scout/pkg/domain"
)

// Prompts adapts a Loam repository to ports.PromptSource.
type Prompts struct {
	Repo *loam.TypedRepository[PromptMetadata]
}

// New creates a prompt source over an initialized repository.
func New(repo core.Repository) *Prompts {
	return &Prompts{Repo: loam.NewTypedRepository[PromptMetadata](repo)}
}

// Open initializes a read-only Loam repository rooted at dir.
func Open(dir string) (*Prompts, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid prompts dir %s: %w", dir, err)
	}
	repo, err := loam.Init(abs, loam.WithStrict(true), loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open prompts dir %s: %w", dir, err)
	}
	return New(repo), nil
}

// Prompt returns the document whose normalized name matches.
func (p *Prompts) Prompt(ctx context.Context, name string) (domain.Prompt, error) {
	prompts, err := p.load(ctx)
	if err != nil {
		return domain.Prompt{}, err
	}
	prompt, ok := prompts[name]
	if !ok {
		return domain.Prompt{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, name)
	}
	return prompt, nil
}

// ListPrompts returns the normalized names of all documents, sorted.
func (p *Prompts) ListPrompts(ctx context.Context) ([]string, error) {
	prompts, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(prompts))
	for name := range prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// load reads every document. Two documents resolving to the same name are an error.
func (p *Prompts) load(ctx context.Context) (map[string]domain.Prompt, error) {
	docs, err := p.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	prompts := make(map[string]domain.Prompt, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		name := trimExtension(rawID)

		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: prompt '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID

		prompts[name] = domain.Prompt{
			Name:        name,
			Description: doc.Data.Description,
			Model:       doc.Data.Model,
			Instruction: strings.TrimSpace(doc.Content),
		}
	}
	return prompts, nil
}

func trimExtension(id string) string {
	return strings.TrimSuffix(id, filepath.Ext(id))
}
