package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSnapshotRepository stores one row per grid in grid_snapshots. A save
// deletes every row and inserts the new set inside one transaction.
type GormSnapshotRepository struct {
	db     *gorm.DB
	closer func() error
}

// NewGormSnapshotRepository creates a repository over db. The caller keeps
// ownership of db unless it was opened through OpenSnapshotRepository.
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Migrate creates the snapshot table
func (r *GormSnapshotRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.GridSnapshotModel{}); err != nil {
		return fmt.Errorf("migrate grid_snapshots: %w", err)
	}
	return nil
}

// Load implements progress.SnapshotRepository
func (r *GormSnapshotRepository) Load(ctx context.Context) (*progress.Snapshot, error) {
	var rows []models.GridSnapshotModel
	if err := r.db.WithContext(ctx).Order("building, process").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query grid_snapshots: %w", err)
	}
	if len(rows) == 0 {
		return nil, progress.ErrSnapshotNotFound
	}

	snapshot := progress.NewSnapshot(time.Time{})
	for i := range rows {
		row := &rows[i]
		if row.SavedAt.After(snapshot.SavedAt) {
			snapshot.SavedAt = row.SavedAt
		}
		key, err := row.Key()
		if err != nil {
			snapshot.Skipped = append(snapshot.Skipped, fmt.Sprintf("%d/%s", row.Building, row.Process))
			continue
		}
		table, err := row.ToDomain()
		if err != nil {
			snapshot.Skipped = append(snapshot.Skipped, key.String())
			continue
		}
		snapshot.Tables[key] = table
	}
	return snapshot, nil
}

// Save implements progress.SnapshotRepository
func (r *GormSnapshotRepository) Save(ctx context.Context, snapshot *progress.Snapshot) error {
	rows := make([]models.GridSnapshotModel, 0, len(snapshot.Tables))
	for _, key := range snapshot.Keys() {
		var m models.GridSnapshotModel
		if err := m.FromDomain(key, snapshot.Tables[key], snapshot.SavedAt.UTC()); err != nil {
			return fmt.Errorf("grid %s: %w", key, err)
		}
		rows = append(rows, m)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.GridSnapshotModel{}).Error; err != nil {
			return fmt.Errorf("clear grid_snapshots: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 50).Error; err != nil {
			return fmt.Errorf("insert grid_snapshots: %w", err)
		}
		return nil
	})
}

// Close implements progress.SnapshotRepository
func (r *GormSnapshotRepository) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

var _ progress.SnapshotRepository = (*GormSnapshotRepository)(nil)
