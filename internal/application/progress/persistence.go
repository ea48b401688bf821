package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrSnapshotSaveFailed wraps every failure to persist the snapshot
var ErrSnapshotSaveFailed = shared.NewDomainError("SNAPSHOT_SAVE_FAILED", "snapshot could not be saved")

// PersistenceAdapter moves tables between the store and a snapshot
// repository, reconciling every stored table on the way in.
type PersistenceAdapter struct {
	repo     progress.SnapshotRepository
	resolver progress.LayoutResolver
	logger   *zap.Logger
	metrics  *telemetry.ProgressMetrics
	driver   string
	now      func() time.Time
}

// NewPersistenceAdapter creates an adapter. metrics may be nil.
func NewPersistenceAdapter(
	repo progress.SnapshotRepository,
	resolver progress.LayoutResolver,
	logger *zap.Logger,
	metrics *telemetry.ProgressMetrics,
	driver string,
) *PersistenceAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistenceAdapter{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		driver:   driver,
		now:      time.Now,
	}
}

// Load reads the snapshot and reconciles each table against the current
// layouts. It never fails: an absent snapshot yields an empty map and an
// unreadable one yields an empty map plus a warning notice. Tables that were
// narrowed or regenerated carry a pending GridReconciled event.
func (a *PersistenceAdapter) Load(ctx context.Context) (map[progress.GridKey]*progress.GridTable, []Notice) {
	now := a.now()
	tables := make(map[progress.GridKey]*progress.GridTable)

	snapshot, err := a.repo.Load(ctx)
	if errors.Is(err, progress.ErrSnapshotNotFound) {
		a.logger.Info("no saved snapshot, starting with default grids")
		return tables, nil
	}
	if err != nil {
		a.logger.Error("failed to load snapshot", zap.Error(err))
		return tables, []Notice{{
			Level:   NoticeWarning,
			Message: fmt.Sprintf("saved progress could not be read, starting with default grids: %v", err),
			At:      now,
		}}
	}

	var notices []Notice
	for _, name := range snapshot.Skipped {
		a.logger.Warn("skipped unrecognised snapshot entry", zap.String("entry", name))
		notices = append(notices, Notice{
			Level:   NoticeWarning,
			Grid:    name,
			Message: fmt.Sprintf("stored entry %q does not name a known grid and was ignored", name),
			At:      now,
		})
	}

	for _, key := range snapshot.Keys() {
		table, report := progress.Reconcile(snapshot.Tables[key], key, a.resolver)
		a.metrics.RecordReconcile(ctx, string(report.Outcome))
		if report.NeedsNotice() {
			a.logger.Info("stored grid reconciled",
				zap.String("grid", key.String()),
				zap.String("outcome", string(report.Outcome)),
				zap.Strings("dropped", report.Dropped),
				zap.String("reason", report.Reason),
			)
			table.AddDomainEvent(progress.NewGridReconciledEvent(report, now))
			notices = append(notices, Notice{
				Level:   NoticeInfo,
				Grid:    key.String(),
				Message: report.Message(),
				At:      now,
			})
		}
		tables[key] = table
	}

	a.logger.Info("snapshot loaded",
		zap.Int("grids", len(tables)),
		zap.Int("notices", len(notices)),
		zap.Time("saved_at", snapshot.SavedAt),
	)
	return tables, notices
}

// Save serializes every table and replaces the stored snapshot. Failures
// are wrapped in ErrSnapshotSaveFailed.
func (a *PersistenceAdapter) Save(ctx context.Context, tables map[progress.GridKey]*progress.GridTable) (err error) {
	now := a.now()
	start := time.Now()
	defer func() { a.metrics.RecordSave(ctx, a.driver, time.Since(start), err) }()

	snapshot := progress.NewSnapshot(now)
	for key, t := range tables {
		snapshot.Tables[key] = t.ToStored()
	}
	if err := a.repo.Save(ctx, snapshot); err != nil {
		a.logger.Error("failed to save snapshot", zap.Error(err), zap.Int("grids", len(tables)))
		return fmt.Errorf("%w: %w", ErrSnapshotSaveFailed, err)
	}
	a.logger.Info("snapshot saved", zap.Int("grids", len(tables)), zap.String("driver", a.driver))
	return nil
}

// Close releases the repository
func (a *PersistenceAdapter) Close() error {
	return a.repo.Close()
}
