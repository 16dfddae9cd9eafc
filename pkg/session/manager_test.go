package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
	"github.com/aretw0/scout/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sess *domain.Session) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[sess.ID] = sess.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[sessionID]; ok {
		return sess.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newSession() *domain.Session {
	return domain.NewSession("", "ResearchTeam", "user")
}

func TestManager_WithSessionSerializesTurns(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	turns := 10
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithSession(ctx, id, newSession, func(ctx context.Context, s *domain.Session) error {
				s.Append(domain.NewEvent(domain.AuthorUser, "hello"))
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Read-modify-write without locking would lose appends.
	s, err := manager.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.Events, turns)
	assert.Equal(t, id, s.ID)
}

func TestManager_WithSessionSavesOnError(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("oracle down")

	err := manager.WithSession(ctx, "s1", newSession, func(ctx context.Context, s *domain.Session) error {
		s.Append(domain.NewEvent("SetupAgent", "Initializing research context..."))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := manager.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, s.Events, 1)
}

func TestManager_DeleteMissing(t *testing.T) {
	manager := session.NewManager(memory.NewStore())

	err := manager.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type recordingLocker struct {
	mu   sync.Mutex
	ttls []time.Duration
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLockTTL(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Minute))

	err := manager.WithSession(context.Background(), "s", newSession, func(context.Context, *domain.Session) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Minute}, locker.ttls)
}
