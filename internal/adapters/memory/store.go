package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/page"
)

// Store implements ports.PageStore in memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]page.Snapshot
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string]page.Snapshot)}
}

// Save stores a copy of the snapshot.
func (s *Store) Save(ctx context.Context, pageID string, snapshot *page.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[pageID] = clone(*snapshot)
	return nil
}

// Load returns a copy so callers cannot mutate the stored page.
func (s *Store) Load(ctx context.Context, pageID string) (*page.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.data[pageID]
	if !ok {
		return nil, domain.ErrPageNotFound
	}
	ret := clone(snapshot)
	return &ret, nil
}

func (s *Store) Delete(ctx context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, pageID)
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func clone(s page.Snapshot) page.Snapshot {
	if s.History != nil {
		s.History = append([]page.HistoryEntry(nil), s.History...)
	}
	return s
}
