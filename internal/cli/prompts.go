package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/scout/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ListPrompts prints the prompt names with their descriptions.
func ListPrompts(ctx context.Context, prompts ports.PromptSource, out io.Writer) error {
	names, err := prompts.ListPrompts(ctx)
	if err != nil {
		return fmt.Errorf("error listing prompts: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		p, err := prompts.Prompt(ctx, name)
		if err != nil {
			return err
		}
		if p.Description == "" {
			fmt.Fprintf(out, "- %s\n", name)
			continue
		}
		fmt.Fprintf(out, "- %s: %s\n", name, p.Description)
	}
	return nil
}

// ShowPrompt prints one prompt as YAML.
func ShowPrompt(ctx context.Context, prompts ports.PromptSource, name string, out io.Writer) error {
	p, err := prompts.Prompt(ctx, name)
	if err != nil {
		return fmt.Errorf("error loading prompt '%s': %w", name, err)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}
