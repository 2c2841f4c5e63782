package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
	"github.com/aretw0/auraflow/pkg/session"
)

// SlowStore simulates latency to provoke lost updates if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s SlowStore) Save(ctx context.Context, id string, conv *domain.Conversation) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, id, conv)
}

func TestManager_UpdateSerializesWriters(t *testing.T) {
	mgr := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Update(ctx, "race", func(ctx context.Context, conv *domain.Conversation) error {
				conv.Transcript = append(conv.Transcript, domain.Entry{Role: domain.RoleUser, Content: "x"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	conv, err := mgr.Load(ctx, "race")
	require.NoError(t, err)
	assert.Len(t, conv.Transcript, 20, "no update may be lost")
}

func TestManager_UpdateCreatesAndSkips(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	mgr := session.NewManager(store, session.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	conv, err := mgr.Update(ctx, "s1", func(ctx context.Context, conv *domain.Conversation) error {
		assert.True(t, conv.Fresh())
		return session.ErrSkipSave
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", conv.SessionID)
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	boom := errors.New("boom")
	_, err = mgr.Update(ctx, "s1", func(ctx context.Context, conv *domain.Conversation) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = mgr.Update(ctx, "s1", func(ctx context.Context, conv *domain.Conversation) error {
		conv.State.CurrentNodeID = "menu"
		return nil
	})
	require.NoError(t, err)
	saved, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "menu", saved.State.CurrentNodeID)
	assert.Equal(t, now, saved.UpdatedAt)
}

type recordingLocker struct {
	mu    sync.Mutex
	locks []string
	ttl   time.Duration
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locks = append(l.locks, key)
	l.ttl = ttl
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))

	_, err := mgr.Update(context.Background(), "s9", func(ctx context.Context, conv *domain.Conversation) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"s9"}, locker.locks)
	assert.Equal(t, 5*time.Second, locker.ttl)
}
