package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProgressMetrics records installation progress activity.
type ProgressMetrics struct {
	togglesTotal    *Counter
	notesTotal      *Counter
	savesTotal      *Counter
	saveDuration    *Histogram
	reconcileTotal  *Counter
	gridCompletion  *FloatGauge
	markedCellGauge *Gauge
}

// NewProgressMetrics registers the progress instruments on meter.
func NewProgressMetrics(meter metric.Meter) (*ProgressMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		pm  ProgressMetrics
		err error
	)
	if pm.togglesTotal, err = NewCounter(meter, "progress_cell_toggles_total",
		"Number of cell toggles", "{toggle}"); err != nil {
		return nil, err
	}
	if pm.notesTotal, err = NewCounter(meter, "progress_notes_updates_total",
		"Number of notes edits", "{edit}"); err != nil {
		return nil, err
	}
	if pm.savesTotal, err = NewCounter(meter, "progress_snapshot_saves_total",
		"Number of snapshot saves by result", "{save}"); err != nil {
		return nil, err
	}
	if pm.saveDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "progress_snapshot_save_duration_seconds",
		Description: "Snapshot save latency",
		Unit:        "s",
		Boundaries:  SaveDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if pm.reconcileTotal, err = NewCounter(meter, "progress_reconcile_total",
		"Grids reconciled on load by outcome", "{grid}"); err != nil {
		return nil, err
	}
	if pm.gridCompletion, err = NewFloatGauge(meter, "progress_grid_completion_ratio",
		"Marked cells over total cells per grid", "1"); err != nil {
		return nil, err
	}
	if pm.markedCellGauge, err = NewGauge(meter, "progress_grid_marked_cells",
		"Marked cells per grid", "{cell}"); err != nil {
		return nil, err
	}
	return &pm, nil
}

func gridAttrs(building, process string) []attribute.KeyValue {
	return []attribute.KeyValue{AttrBuilding.String(building), AttrProcess.String(process)}
}

// RecordToggle counts a toggle; state is the resulting cell state.
func (m *ProgressMetrics) RecordToggle(ctx context.Context, building, process, state string) {
	if m == nil {
		return
	}
	m.togglesTotal.Inc(ctx, append(gridAttrs(building, process), AttrCellState.String(state))...)
}

// RecordNotes counts a notes edit.
func (m *ProgressMetrics) RecordNotes(ctx context.Context, building, process string) {
	if m == nil {
		return
	}
	m.notesTotal.Inc(ctx, gridAttrs(building, process)...)
}

// RecordSave counts a save and its latency.
func (m *ProgressMetrics) RecordSave(ctx context.Context, driver string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.savesTotal.Inc(ctx, AttrStorageDriver.String(driver), AttrResult.String(result))
	m.saveDuration.RecordDuration(ctx, d, AttrStorageDriver.String(driver))
}

// RecordReconcile counts one reconciled grid.
func (m *ProgressMetrics) RecordReconcile(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.reconcileTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordCompletion reports the marked share of a grid.
func (m *ProgressMetrics) RecordCompletion(ctx context.Context, building, process string, marked, total int) {
	if m == nil {
		return
	}
	attrs := gridAttrs(building, process)
	m.markedCellGauge.Record(ctx, int64(marked), attrs...)
	ratio := 0.0
	if total > 0 {
		ratio = float64(marked) / float64(total)
	}
	m.gridCompletion.Record(ctx, ratio, attrs...)
}

// MetricsError reports a failure to set up metrics.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewProgressMetrics", Err: "meter cannot be nil"}
