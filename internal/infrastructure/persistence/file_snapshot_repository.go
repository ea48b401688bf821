package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
)

// FileSnapshotRepository keeps the snapshot in a single JSON file. Saves go
// through a synced temp file in the same directory that is renamed over the
// previous snapshot, so readers see either the old or the new document.
type FileSnapshotRepository struct {
	path string
}

// NewFileSnapshotRepository creates a new file-backed snapshot repository
func NewFileSnapshotRepository(path string) *FileSnapshotRepository {
	return &FileSnapshotRepository{path: path}
}

// Path returns the snapshot file path
func (r *FileSnapshotRepository) Path() string {
	return r.path
}

// Load implements progress.SnapshotRepository
func (r *FileSnapshotRepository) Load(ctx context.Context) (*progress.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, progress.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", r.path, err)
	}
	return DecodeSnapshot(data)
}

// Save implements progress.SnapshotRepository
func (r *FileSnapshotRepository) Save(ctx context.Context, snapshot *progress.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return writeFileAtomic(r.path, data)
}

// Close implements progress.SnapshotRepository
func (r *FileSnapshotRepository) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

var _ progress.SnapshotRepository = (*FileSnapshotRepository)(nil)
