package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/wolfeidau/orgviz/internal/store"
)

// SnapshotStore implements store.SnapshotStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]*store.Snapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[uuid.UUID]*store.Snapshot),
	}
}

// Save stores a copy of snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[snapshot.ID]; exists {
		return store.ErrSnapshotAlreadyExists
	}

	s.snapshots[snapshot.ID] = clone(snapshot)

	return nil
}

// Get retrieves a copy of the snapshot with id.
func (s *SnapshotStore) Get(ctx context.Context, id uuid.UUID) (*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, exists := s.snapshots[id]
	if !exists {
		return nil, store.ErrSnapshotNotFound
	}

	return clone(snapshot), nil
}

// clone copies the node slice so callers cannot modify stored state. Node
// details maps are never mutated after enrichment and are shared.
func clone(snapshot *store.Snapshot) *store.Snapshot {
	c := *snapshot
	c.Nodes = slices.Clone(snapshot.Nodes)
	return &c
}
