package persistence

import (
	"context"
	"fmt"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/config"
	applogger "github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/logger"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// OpenSnapshotRepository builds the snapshot repository selected by
// cfg.Storage.Driver. The returned repository owns every connection it opened.
func OpenSnapshotRepository(ctx context.Context, cfg *config.Config, zl *zap.Logger) (progress.SnapshotRepository, error) {
	if zl == nil {
		zl = zap.NewNop()
	}
	gormLevel := applogger.GormLevel(cfg.Log.Level)

	switch cfg.Storage.Driver {
	case config.DriverFile, "":
		return NewFileSnapshotRepository(cfg.Storage.FilePath), nil

	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.Storage.SQLitePath, zl, gormLevel)
		if err != nil {
			return nil, err
		}
		return gormRepository(ctx, db)

	case config.DriverPostgres:
		db, err := OpenPostgres(&cfg.Database, zl, gormLevel)
		if err != nil {
			return nil, err
		}
		return gormRepository(ctx, db)

	case config.DriverRedis:
		return NewRedisSnapshotRepository(ctx, &cfg.Redis, cfg.Storage.Key)

	case config.DriverS3:
		store, err := storage.NewS3ObjectStorage(ctx, &cfg.S3, storage.WithLogger(zl))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return NewObjectSnapshotRepository(store, cfg.Storage.Key, storage.ErrObjectNotFound), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func gormRepository(ctx context.Context, db *Database) (*GormSnapshotRepository, error) {
	repo := NewGormSnapshotRepository(db.DB)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo.closer = db.Close
	return repo, nil
}
