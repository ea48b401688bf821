package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
)

// DefaultObjectKey is used when no object key is configured
const DefaultObjectKey = "site-progress/snapshot.json"

const snapshotContentType = "application/json"

// ErrObjectMissing is the default missing-object sentinel for ObjectStore
// implementations that do not bring their own.
var ErrObjectMissing = errors.New("object missing")

// ObjectStore is the subset of an object storage client the snapshot
// repository needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
}

// ObjectSnapshotRepository keeps the snapshot document as a single object
type ObjectSnapshotRepository struct {
	store    ObjectStore
	key      string
	notFound error
}

// NewObjectSnapshotRepository creates a repository writing to key in store.
// notFound is the store's missing-object sentinel; nil means ErrObjectMissing.
func NewObjectSnapshotRepository(store ObjectStore, key string, notFound error) *ObjectSnapshotRepository {
	if key == "" {
		key = DefaultObjectKey
	}
	if notFound == nil {
		notFound = ErrObjectMissing
	}
	return &ObjectSnapshotRepository{store: store, key: key, notFound: notFound}
}

// Key returns the object key holding the snapshot
func (r *ObjectSnapshotRepository) Key() string {
	return r.key
}

// Load implements progress.SnapshotRepository
func (r *ObjectSnapshotRepository) Load(ctx context.Context) (*progress.Snapshot, error) {
	data, err := r.store.Download(ctx, r.key)
	if errors.Is(err, r.notFound) {
		return nil, progress.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", r.key, err)
	}
	return DecodeSnapshot(data)
}

// Save implements progress.SnapshotRepository
func (r *ObjectSnapshotRepository) Save(ctx context.Context, snapshot *progress.Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := r.store.Upload(ctx, r.key, data, snapshotContentType); err != nil {
		return fmt.Errorf("upload %s: %w", r.key, err)
	}
	return nil
}

// Close implements progress.SnapshotRepository
func (r *ObjectSnapshotRepository) Close() error {
	return nil
}

var _ progress.SnapshotRepository = (*ObjectSnapshotRepository)(nil)
