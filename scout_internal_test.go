package scout

import (
	"context"
	"testing"

	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/config"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ClosesBackendOnFailure(t *testing.T) {
	closed := 0
	prev := newBackend
	newBackend = func(config.SessionsConfig) (Backend, error) {
		return Backend{
			Store: memory.NewStore(),
			Close: func() error { closed++; return nil },
		}, nil
	}
	t.Cleanup(func() { newBackend = prev })

	cfg := config.Default()
	cfg.Oracle.Provider = config.ProviderOffline

	// A catalog without the research prompts makes the team fail to build.
	_, err := New(context.Background(), cfg,
		WithLogger(logging.NewNop()),
		WithPromptSource(memory.NewPrompts()),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPromptNotFound)
	assert.Equal(t, 1, closed)
}
