package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfeidau/orgviz/internal/org"
)

// Sentinel errors for snapshot store operations
var (
	ErrSnapshotNotFound      = errors.New("snapshot not found")
	ErrSnapshotAlreadyExists = errors.New("snapshot already exists")
	ErrSnapshotCorrupt       = errors.New("snapshot payload corrupt")
	ErrThrottled             = errors.New("AWS request throttled")
)

// Snapshot is a point in time copy of a fully described organization, taken
// before any pruning so it can be rendered again at either depth.
type Snapshot struct {
	ID                  uuid.UUID
	RootID              string
	ManagementAccountID string
	CapturedAt          time.Time
	Nodes               []org.Node
}

// SnapshotStore persists organization snapshots.
type SnapshotStore interface {
	// Save stores a new snapshot.
	// Returns ErrSnapshotAlreadyExists if a snapshot with the same ID exists.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Get retrieves a snapshot by ID.
	// Returns ErrSnapshotNotFound if the snapshot doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*Snapshot, error)
}

// NewSnapshot captures g. It must be called before accounts are pruned,
// otherwise the snapshot only holds the unit level tree.
func NewSnapshot(g *org.AggregatedGraph, capturedAt time.Time) (*Snapshot, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot id: %w", err)
	}

	root, ok := g.Node(g.RootID())
	if !ok {
		return nil, fmt.Errorf("graph has no root vertex")
	}

	return &Snapshot{
		ID:                  id,
		RootID:              root.ID,
		ManagementAccountID: root.ManagementAccountID,
		CapturedAt:          capturedAt.UTC(),
		Nodes:               g.Nodes(),
	}, nil
}

// Graph rebuilds the aggregated graph from the stored nodes.
func (s *Snapshot) Graph() (*org.AggregatedGraph, error) {
	g, err := org.Assemble(s.Nodes)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	return org.Annotate(g), nil
}
