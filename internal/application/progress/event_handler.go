package progress

import (
	"context"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ActivityHandler logs progress events and feeds the progress metrics
type ActivityHandler struct {
	logger  *zap.Logger
	metrics *telemetry.ProgressMetrics
}

// NewActivityHandler creates a handler. metrics may be nil.
func NewActivityHandler(logger *zap.Logger, metrics *telemetry.ProgressMetrics) *ActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityHandler{logger: logger, metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *ActivityHandler) EventTypes() []string {
	return []string{
		progress.EventTypeCellToggled,
		progress.EventTypeNotesUpdated,
		progress.EventTypeGridReconciled,
		progress.EventTypeSnapshotSaved,
	}
}

// Handle processes one progress event
func (h *ActivityHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *progress.CellToggledEvent:
		h.logger.Info("cell toggled",
			zap.String("building", e.Building.String()),
			zap.String("process", string(e.Process)),
			zap.Int("floor", e.Floor),
			zap.String("unit", e.Unit),
			zap.String("state", e.State.String()),
		)
		h.metrics.RecordToggle(ctx, e.Building.String(), string(e.Process), e.State.String())
	case *progress.NotesUpdatedEvent:
		h.logger.Info("notes updated",
			zap.String("building", e.Building.String()),
			zap.String("process", string(e.Process)),
			zap.Int("floor", e.Floor),
		)
		h.metrics.RecordNotes(ctx, e.Building.String(), string(e.Process))
	case *progress.GridReconciledEvent:
		h.logger.Debug("grid reconciled",
			zap.String("building", e.Building.String()),
			zap.String("process", string(e.Process)),
			zap.String("outcome", string(e.Outcome)),
		)
	case *progress.SnapshotSavedEvent:
		h.logger.Debug("snapshot saved event", zap.Int("grids", e.Grids))
	default:
		h.logger.Warn("unexpected event type", zap.String("actual", event.EventType()))
	}
	return nil
}

var _ shared.EventHandler = (*ActivityHandler)(nil)
