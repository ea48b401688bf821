package progress

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSnapshotNotFound is returned by repositories when nothing was saved yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

var snapshotAggregateID = uuid.NewSHA1(gridNamespace, []byte("snapshot"))

// StoredTable is the serialized form of a grid: column labels plus
// row-major text cells.
type StoredTable struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Snapshot is the durable image of every saved grid.
type Snapshot struct {
	SavedAt time.Time
	Tables  map[GridKey]StoredTable
	// Skipped lists stored entries that could not be attributed to a grid.
	Skipped []string
}

// NewSnapshot creates an empty snapshot stamped with savedAt
func NewSnapshot(savedAt time.Time) *Snapshot {
	return &Snapshot{SavedAt: savedAt, Tables: make(map[GridKey]StoredTable)}
}

// Keys returns the table keys in display order.
func (s *Snapshot) Keys() []GridKey {
	keys := make([]GridKey, 0, len(s.Tables))
	for k := range s.Tables {
		keys = append(keys, k)
	}
	SortGridKeys(keys)
	return keys
}

// SnapshotRepository loads and replaces the durable snapshot wholesale.
type SnapshotRepository interface {
	// Load returns the stored snapshot or ErrSnapshotNotFound.
	Load(ctx context.Context) (*Snapshot, error)
	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, snapshot *Snapshot) error
	// Close releases backend resources.
	Close() error
}
