package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/guiapi/internal/logging"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed page lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to stored pages. Local locks are reference
// counted and dropped when unused; an optional DistributedLocker extends the
// guarantee across processes.
type Manager struct {
	store ports.PageStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store ports.PageStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(pageID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[pageID]
	if !ok {
		entry = &lockEntry{}
		m.locks[pageID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and drops the entry at zero.
func (m *Manager) release(pageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[pageID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, pageID)
	}
}

// Load retrieves a stored page.
func (m *Manager) Load(ctx context.Context, pageID string) (*page.Snapshot, error) {
	var snapshot *page.Snapshot
	err := m.WithLock(ctx, pageID, func(ctx context.Context) error {
		var err error
		snapshot, err = m.store.Load(ctx, pageID)
		return err
	})
	return snapshot, err
}

// LoadOrCreate loads a page, or creates and stores one built from markup.
func (m *Manager) LoadOrCreate(ctx context.Context, pageID, markup string) (*page.Snapshot, error) {
	var snapshot *page.Snapshot
	err := m.WithLock(ctx, pageID, func(ctx context.Context) error {
		var err error
		snapshot, err = m.loadOrCreate(ctx, pageID, markup)
		return err
	})
	return snapshot, err
}

func (m *Manager) loadOrCreate(ctx context.Context, pageID, markup string) (*page.Snapshot, error) {
	snapshot, err := m.store.Load(ctx, pageID)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, domain.ErrPageNotFound) {
		return nil, fmt.Errorf("failed to check page existence: %w", err)
	}

	p, err := page.New(markup)
	if err != nil {
		return nil, err
	}
	if pageID != "" {
		p.ID = pageID
	}
	snapshot, err = p.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, snapshot.ID, snapshot); err != nil {
		return nil, fmt.Errorf("failed to initialize page: %w", err)
	}
	m.logger.Debug("Session: page created", "page", snapshot.ID)
	return snapshot, nil
}

// Update runs a read-modify-write cycle on a page while holding its lock.
// The page is created from markup when missing. fn returns the snapshot to store.
func (m *Manager) Update(ctx context.Context, pageID, markup string, fn func(context.Context, *page.Snapshot) (*page.Snapshot, error)) error {
	return m.WithLock(ctx, pageID, func(ctx context.Context) error {
		current, err := m.loadOrCreate(ctx, pageID, markup)
		if err != nil {
			return err
		}
		next, err := fn(ctx, current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return m.store.Save(ctx, pageID, next)
	})
}

// Save persists a page.
func (m *Manager) Save(ctx context.Context, pageID string, snapshot *page.Snapshot) error {
	return m.WithLock(ctx, pageID, func(ctx context.Context) error {
		return m.store.Save(ctx, pageID, snapshot)
	})
}

// Delete removes a page from the store.
func (m *Manager) Delete(ctx context.Context, pageID string) error {
	return m.WithLock(ctx, pageID, func(ctx context.Context) error {
		return m.store.Delete(ctx, pageID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying page store.
func (m *Manager) Store() ports.PageStore {
	return m.store
}

// WithLock executes fn while holding the lock for the page.
// fn must use the store directly; calling Manager methods for the same page deadlocks.
func (m *Manager) WithLock(ctx context.Context, pageID string, fn func(context.Context) error) error {
	entry := m.acquire(pageID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(pageID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, pageID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"page", pageID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
