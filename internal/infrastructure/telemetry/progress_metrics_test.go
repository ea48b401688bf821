package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T) (*ProgressMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	pm, err := NewProgressMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return pm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestNewProgressMetrics_NilMeter(t *testing.T) {
	_, err := NewProgressMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestProgressMetrics_Noop(t *testing.T) {
	pm, err := NewProgressMetrics(noop.NewMeterProvider().Meter("noop"))
	require.NoError(t, err)

	ctx := context.Background()
	pm.RecordToggle(ctx, "101동", "indoor-unit", "marked")
	pm.RecordSave(ctx, "file", time.Millisecond, nil)

	var nilMetrics *ProgressMetrics
	nilMetrics.RecordToggle(ctx, "101동", "indoor-unit", "marked")
	nilMetrics.RecordCompletion(ctx, "101동", "indoor-unit", 1, 2)
}

func TestProgressMetrics_Record(t *testing.T) {
	pm, reader := newTestMetrics(t)
	ctx := context.Background()

	pm.RecordToggle(ctx, "101동", "indoor-unit", "marked")
	pm.RecordToggle(ctx, "101동", "indoor-unit", "marked")
	pm.RecordNotes(ctx, "101동", "indoor-unit")
	pm.RecordSave(ctx, "file", 20*time.Millisecond, nil)
	pm.RecordSave(ctx, "file", 5*time.Millisecond, errors.New("disk full"))
	pm.RecordReconcile(ctx, "narrowed")
	pm.RecordCompletion(ctx, "101동", "indoor-unit", 20, 80)

	data := collect(t, reader)

	toggles, ok := data["progress_cell_toggles_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, toggles.DataPoints, 1)
	assert.Equal(t, int64(2), toggles.DataPoints[0].Value)
	state, _ := toggles.DataPoints[0].Attributes.Value(AttrCellState)
	assert.Equal(t, "marked", state.AsString())

	saves, ok := data["progress_snapshot_saves_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	results := map[string]int64{}
	for _, dp := range saves.DataPoints {
		v, _ := dp.Attributes.Value(AttrResult)
		results[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"success": 1, "failure": 1}, results)

	latency, ok := data["progress_snapshot_save_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, latency.DataPoints, 1)
	assert.Equal(t, uint64(2), latency.DataPoints[0].Count)

	ratio, ok := data["progress_grid_completion_ratio"].(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, ratio.DataPoints, 1)
	assert.InDelta(t, 0.25, ratio.DataPoints[0].Value, 1e-9)
	building, _ := ratio.DataPoints[0].Attributes.Value(attribute.Key("building"))
	assert.Equal(t, "101동", building.AsString())

	marked, ok := data["progress_grid_marked_cells"].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(20), marked.DataPoints[0].Value)

	_, ok = data["progress_reconcile_total"].(metricdata.Sum[int64])
	assert.True(t, ok)
}

func TestRecordCompletion_EmptyGrid(t *testing.T) {
	pm, reader := newTestMetrics(t)
	pm.RecordCompletion(context.Background(), "101동", "panel", 0, 0)

	ratio := collect(t, reader)["progress_grid_completion_ratio"].(metricdata.Gauge[float64])
	assert.Equal(t, 0.0, ratio.DataPoints[0].Value)
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.ForceFlush(context.Background()))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
