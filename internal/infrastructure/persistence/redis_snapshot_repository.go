package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is used when no key is configured
const DefaultRedisKey = "site-progress:snapshot"

// RedisSnapshotRepository stores the encoded snapshot document under one key.
// SET replaces the value atomically.
type RedisSnapshotRepository struct {
	client *redis.Client
	key    string
	owned  bool
}

// NewRedisSnapshotRepository connects to Redis and verifies the connection
func NewRedisSnapshotRepository(ctx context.Context, cfg *config.RedisConfig, key string) (*RedisSnapshotRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	repo := NewRedisSnapshotRepositoryWithClient(client, key)
	repo.owned = true
	return repo, nil
}

// NewRedisSnapshotRepositoryWithClient creates a repository with an existing client.
// The caller keeps ownership of the client.
func NewRedisSnapshotRepositoryWithClient(client *redis.Client, key string) *RedisSnapshotRepository {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSnapshotRepository{client: client, key: key}
}

// Key returns the Redis key holding the snapshot
func (r *RedisSnapshotRepository) Key() string {
	return r.key
}

// Load implements progress.SnapshotRepository
func (r *RedisSnapshotRepository) Load(ctx context.Context) (*progress.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, progress.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return DecodeSnapshot(data)
}

// Save implements progress.SnapshotRepository
func (r *RedisSnapshotRepository) Save(ctx context.Context, snapshot *progress.Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Close implements progress.SnapshotRepository
func (r *RedisSnapshotRepository) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}

var _ progress.SnapshotRepository = (*RedisSnapshotRepository)(nil)
