package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/scout/pkg/adapters/redis"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	session := domain.NewSession("session-ttl", "ResearchTeam", "u")
	session.State["foo"] = "bar"

	require.NoError(t, store.Save(ctx, session))

	sessions, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, sessions, session.ID)

	// Key expiration is driven by miniredis time.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Index pruning uses the wall clock, so wait past the TTL.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("my-session", "ResearchTeam", "u")))

	assert.True(t, mr.Exists("custom:app:data:my-session"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, "my-session")
	assert.NoError(t, store.Ping(ctx))
}

func TestRedisStore_ReservedLookingIDs(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ctx := context.Background()

	for _, id := range []string{"alice", "index", "lock:alice", "data:alice"} {
		require.NoError(t, store.Save(ctx, domain.NewSession(id, "ResearchTeam", "u")), id)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "index", "lock:alice", "data:alice"}, list)

	loaded, err := store.Load(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, "index", loaded.ID)
}

func TestRedisStore_SessionNamedLikeLockKey(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, store.Prefix())
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "alice", time.Minute)
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	require.NoError(t, store.Save(ctx, domain.NewSession("lock:alice", "ResearchTeam", "u")))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"lock:alice"))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"data:lock:alice"))

	got, err := mr.Get(redis.DefaultPrefix + "lock:alice")
	require.NoError(t, err)
	assert.NotContains(t, got, "ResearchTeam", "the lock token must not be overwritten by session data")
}
