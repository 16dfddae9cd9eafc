package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports/tests"
	"github.com/aretw0/scout/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSource struct{ err error }

func (b brokenSource) Prompt(context.Context, string) (domain.Prompt, error) {
	return domain.Prompt{}, b.err
}

func (b brokenSource) ListPrompts(context.Context) ([]string, error) { return nil, b.err }

func TestRegistry_Layering(t *testing.T) {
	custom := memory.NewPrompts(domain.Prompt{Name: "summarizer", Instruction: "custom summary"})
	reg := registry.NewRegistry(custom, memory.DefaultPrompts())
	reg.Register(domain.Prompt{Name: "triage", Instruction: "override"})

	tests.PromptSourceContractTest(t, reg, map[string]string{
		"triage":     "override",
		"summarizer": "custom summary",
	})

	p, err := reg.Prompt(context.Background(), "researcher")
	require.NoError(t, err)
	assert.Contains(t, p.Instruction, "{current_query}")

	names, err := reg.ListPrompts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"chitchat", "query_generator", "reflector", "researcher", "summarizer", "triage"}, names)
}

func TestRegistry_LayerErrorAborts(t *testing.T) {
	boom := errors.New("disk unreadable")
	reg := registry.NewRegistry(brokenSource{err: boom}, memory.DefaultPrompts())

	_, err := reg.Prompt(context.Background(), "triage")
	assert.ErrorIs(t, err, boom)

	_, err = reg.ListPrompts(context.Background())
	assert.ErrorIs(t, err, boom)
}
