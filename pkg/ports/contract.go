package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, "ResearchTeam", "user-1")
		s.State["user_question"] = "what is new in go?"
		s.State["count"] = 42
		s.Append(domain.NewEvent("SetupAgent", "Initializing research context..."))

		err := store.Save(ctx, s)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.ID, loaded.ID)
		assert.Equal(t, "ResearchTeam", loaded.AppName)
		assert.Equal(t, "user-1", loaded.UserID)
		assert.Equal(t, "what is new in go?", loaded.State["user_question"])
		// JSON backed stores turn ints into float64, so only check presence.
		assert.NotNil(t, loaded.State["count"])
		require.Len(t, loaded.Events, 1)
		assert.Equal(t, "SetupAgent", loaded.Events[0].Author)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.State["user_question"] = "mutated"
		loaded.Append(domain.NewEvent("x", "y"))

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "what is new in go?", again.State["user_question"])
		assert.Len(t, again.Events, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewSession(id1, "ResearchTeam", "u"))
		_ = store.Save(ctx, domain.NewSession(id2, "ResearchTeam", "u"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
