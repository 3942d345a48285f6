package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/guiapi/internal/adapters/memory"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/ports"
	"github.com/aretw0/guiapi/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore adds latency so lost updates show up when locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*page.Snapshot, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	mgr := session.NewManager(slowStore{memory.New()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.Update(ctx, "p", "<p></p>", func(ctx context.Context, s *page.Snapshot) (*page.Snapshot, error) {
				s.History = append(s.History, page.HistoryEntry{URL: "/x"})
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := mgr.Load(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, got.History, 10)
}

func TestManager_LoadOrCreate(t *testing.T) {
	mgr := session.NewManager(memory.New())
	ctx := context.Background()

	_, err := mgr.Load(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrPageNotFound)

	created, err := mgr.LoadOrCreate(ctx, "fresh", `<div id="container">hi</div>`)
	require.NoError(t, err)
	assert.Equal(t, "fresh", created.ID)
	assert.Contains(t, created.HTML, `<div id="container">hi</div>`)

	again, err := mgr.LoadOrCreate(ctx, "fresh", "ignored")
	require.NoError(t, err)
	assert.Equal(t, created.HTML, again.HTML)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
}

func TestManager_UpdateErrorKeepsPage(t *testing.T) {
	mgr := session.NewManager(memory.New())
	ctx := context.Background()
	_, err := mgr.LoadOrCreate(ctx, "p", "<p>one</p>")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = mgr.Update(ctx, "p", "", func(ctx context.Context, s *page.Snapshot) (*page.Snapshot, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := mgr.Load(ctx, "p")
	require.NoError(t, err)
	assert.Contains(t, got.HTML, "one")
}

type countingLocker struct {
	mu    sync.Mutex
	locks int
	held  int
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locks++
	l.held++
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.held--
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	mgr := session.NewManager(memory.New(), session.WithLocker(locker))
	ctx := context.Background()

	require.NoError(t, mgr.Save(ctx, "p", &page.Snapshot{ID: "p"}))
	require.NoError(t, mgr.Delete(ctx, "p"))

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 0, locker.held)
}
