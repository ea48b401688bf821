package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		driver string
		want   any
	}{
		{"file", config.DriverFile, &FileSnapshotRepository{}},
		{"sqlite", config.DriverSQLite, &GormSnapshotRepository{}},
		{"redis", config.DriverRedis, &RedisSnapshotRepository{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Log: config.LogConfig{Level: "error"},
				Storage: config.StorageConfig{
					Driver:     tt.driver,
					FilePath:   filepath.Join(dir, "progress.json"),
					SQLitePath: filepath.Join(dir, "progress.db"),
				},
				Redis: config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr.Port())},
			}
			repo, err := OpenSnapshotRepository(ctx, cfg, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.want, repo)

			require.NoError(t, repo.Save(ctx, sampleSnapshot(t)))
			loaded, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, loaded.Tables, 2)
			assert.NoError(t, repo.Close())
		})
	}
}

func TestOpenSnapshotRepository_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "ftp"}}

	_, err := OpenSnapshotRepository(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown storage driver")
}
