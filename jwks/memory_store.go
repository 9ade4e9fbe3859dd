package jwks

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the snapshot in process memory. It is useful for tests
// and for deployments with no writable disk, at the cost of losing the stale
// fallback across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, nil
	}
	return copySnapshot(s.snapshot), nil
}

func (s *MemoryStore) Save(_ context.Context, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = copySnapshot(snapshot)
	return nil
}

func (s *MemoryStore) FetchedAt(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return time.Time{}, false, nil
	}
	return s.snapshot.FetchedAt, true, nil
}

func copySnapshot(s *Snapshot) *Snapshot {
	raw := make([]byte, len(s.Raw))
	copy(raw, s.Raw)
	return &Snapshot{Raw: raw, FetchedAt: s.FetchedAt}
}
