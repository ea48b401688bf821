package progress

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/event"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpen_RequiresRepository(t *testing.T) {
	_, err := Open(context.Background(), Deps{})
	assert.Error(t, err)
}

func TestService_Building101IndoorUnit(t *testing.T) {
	svc := openTestService(t, &memoryRepository{})

	view, err := svc.OnBuildingOrProcessChanged(context.Background(), 101, progress.ProcessIndoorUnit)
	require.NoError(t, err)

	assert.Equal(t, "101동", view.Building)
	assert.Equal(t, "실내기", view.ProcessName)
	assert.Equal(t, []string{"층", "1", "2", "3", "4", "비고"}, view.Columns)
	require.Len(t, view.Rows, 20)
	assert.Equal(t, "20F", view.Rows[0].FloorLabel)
	assert.Equal(t, "1F", view.Rows[19].FloorLabel)

	row := view.Rows[5]
	assert.Equal(t, 15, row.Floor)
	assert.Equal(t, "1502", row.Cells[1].Label)
	assert.Equal(t, "plain", row.Cells[1].Style)
	assert.Equal(t, 80, view.Total)
	assert.Equal(t, 0, view.Marked)
}

func TestService_ToggleFloor15Unit2(t *testing.T) {
	svc := openTestService(t, &memoryRepository{})
	ctx := context.Background()

	cell, err := svc.OnCellClick(ctx, 101, progress.ProcessIndoorUnit, 5, "2")
	require.NoError(t, err)
	assert.True(t, cell.Changed)
	assert.True(t, cell.Marked)
	assert.Equal(t, "1502", cell.Label)
	assert.Equal(t, "2026-10-19", cell.Stamp, "stamp uses the site time zone")
	assert.Equal(t, "1502 ✔ 2026-10-19", cell.Text)
	assert.Equal(t, "highlight", cell.Style)
	assert.Equal(t, []progress.GridKey{progress.NewGridKey(101, progress.ProcessIndoorUnit)}, svc.Dirty())

	cell, err = svc.OnCellClick(ctx, 101, progress.ProcessIndoorUnit, 5, "2호")
	require.NoError(t, err)
	assert.False(t, cell.Marked)
	assert.Equal(t, "1502", cell.Text)
	assert.Equal(t, "plain", cell.Style)
}

func TestService_FrozenColumnIsNoop(t *testing.T) {
	svc := openTestService(t, &memoryRepository{})
	ctx := context.Background()

	for _, column := range []string{"층", "floor", "비고", "notes"} {
		cell, err := svc.OnCellClick(ctx, 101, progress.ProcessPanel, 0, column)
		require.NoError(t, err, column)
		assert.False(t, cell.Changed, column)
	}
	floorCell, err := svc.OnCellClick(ctx, 101, progress.ProcessPanel, 0, "층")
	require.NoError(t, err)
	assert.Equal(t, "20F", floorCell.Text)
	assert.Empty(t, svc.Dirty())
}

func TestService_InvalidInput(t *testing.T) {
	svc := openTestService(t, &memoryRepository{})
	ctx := context.Background()

	_, err := svc.OnCellClick(ctx, 999, progress.ProcessPanel, 0, "1")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.OnBuildingOrProcessChanged(ctx, 101, progress.Process("welding"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.OnCellClick(ctx, 101, progress.ProcessPanel, 20, "1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.OnCellClick(ctx, 101, progress.ProcessPanel, 0, "9")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_UpdateNotes(t *testing.T) {
	svc := openTestService(t, &memoryRepository{})
	ctx := context.Background()

	row, err := svc.UpdateNotes(ctx, 105, progress.ProcessOutdoorUnit, 2, "실외기 반입 완료")
	require.NoError(t, err)
	assert.Equal(t, 18, row.Floor)
	assert.Equal(t, "실외기 반입 완료", row.Notes)
	assert.Len(t, svc.Dirty(), 1)

	_, err = svc.UpdateNotes(ctx, 105, progress.ProcessOutdoorUnit, -1, "x")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	ctx := context.Background()

	first, err := Open(ctx, Deps{
		Repository: persistence.NewFileSnapshotRepository(path),
		Clock:      fixedClock,
		Location:   kst,
	})
	require.NoError(t, err)

	_, err = first.OnCellClick(ctx, 101, progress.ProcessIndoorUnit, 5, "2")
	require.NoError(t, err)
	_, err = first.OnCellClick(ctx, 107, progress.ProcessCommissioning, 19, "5")
	require.NoError(t, err)
	_, err = first.UpdateNotes(ctx, 107, progress.ProcessCommissioning, 0, "검수 예정")
	require.NoError(t, err)
	require.NoError(t, first.OnSaveRequested(ctx))
	assert.Empty(t, first.Dirty())

	before := map[progress.GridKey]*GridView{}
	for _, g := range first.LoadedGrids(ctx) {
		before[g.Key] = newGridView(g)
	}
	require.NoError(t, first.Close(ctx))

	second, err := Open(ctx, Deps{
		Repository: persistence.NewFileSnapshotRepository(path),
		Clock:      fixedClock,
		Location:   kst,
	})
	require.NoError(t, err)
	defer second.Close(ctx)

	assert.Empty(t, second.Notices())
	after := map[progress.GridKey]*GridView{}
	for _, g := range second.LoadedGrids(ctx) {
		after[g.Key] = newGridView(g)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("reloaded grids differ (-before +after):\n%s", diff)
	}
}

func TestService_SaveFailureKeepsDirty(t *testing.T) {
	repo := &memoryRepository{saveErr: errors.New("read-only file system")}
	svc := openTestService(t, repo)
	ctx := context.Background()

	_, err := svc.OnCellClick(ctx, 101, progress.ProcessPanel, 0, "1")
	require.NoError(t, err)

	err = svc.OnSaveRequested(ctx)
	assert.ErrorIs(t, err, ErrSnapshotSaveFailed)
	assert.Len(t, svc.Dirty(), 1)
}

func TestService_OpenWithNotices(t *testing.T) {
	key := progress.NewGridKey(103, progress.ProcessPanel)
	snapshot := progress.NewSnapshot(testNow)
	snapshot.Tables[key] = progress.StoredTable{Columns: []string{"층", "1"}, Rows: [][]string{{"20F", "2001"}}}

	svc := openTestService(t, &memoryRepository{snapshot: snapshot})

	notices := svc.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, key.String(), notices[0].Grid)

	view, err := svc.OnBuildingOrProcessChanged(context.Background(), 103, progress.ProcessPanel)
	require.NoError(t, err)
	assert.Len(t, view.Rows, 20)
	assert.Equal(t, []string{"1", "2", "3"}, view.Units)
}

func TestService_OpenCachesEveryStoredTable(t *testing.T) {
	resolver := progress.DefaultLayoutResolver()
	indoor := progress.NewGridTable(progress.NewGridKey(101, progress.ProcessIndoorUnit), resolver)
	_, _, err := indoor.Toggle(5, "2", testNow)
	require.NoError(t, err)
	panel := progress.NewGridTable(progress.NewGridKey(103, progress.ProcessPanel), resolver)

	snapshot := progress.NewSnapshot(testNow)
	snapshot.Tables[indoor.Key] = indoor.ToStored()
	snapshot.Tables[panel.Key] = panel.ToStored()

	svc := openTestService(t, &memoryRepository{snapshot: snapshot})

	loaded := svc.LoadedGrids(context.Background())
	require.Len(t, loaded, 2)
	assert.Equal(t, indoor.Key, loaded[0].Key)
	assert.Equal(t, panel.Key, loaded[1].Key)
	assert.True(t, loaded[0].Rows[5].Cells[1].IsMarked())
	assert.Zero(t, svc.DirtyCount())
}

func TestService_PublishesEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	bus := event.NewInMemoryEventBus(logger)
	bus.Subscribe(NewActivityHandler(logger, nil))

	var saved []shared.DomainEvent
	bus.Subscribe(event.NewHandlerFunc(func(_ context.Context, e shared.DomainEvent) error {
		saved = append(saved, e)
		return nil
	}, progress.EventTypeSnapshotSaved))

	svc := openTestService(t, &memoryRepository{}, func(d *Deps) {
		d.EventBus = bus
		d.Logger = logger
	})
	ctx := context.Background()

	_, err := svc.OnCellClick(ctx, 101, progress.ProcessIndoorUnit, 0, "1")
	require.NoError(t, err)
	_, err = svc.UpdateNotes(ctx, 101, progress.ProcessIndoorUnit, 0, "done")
	require.NoError(t, err)
	_, err = svc.UpdateNotes(ctx, 101, progress.ProcessIndoorUnit, 0, "done")
	require.NoError(t, err)
	require.NoError(t, svc.OnSaveRequested(ctx))

	assert.Equal(t, 1, logs.FilterMessage("cell toggled").Len())
	assert.Equal(t, 1, logs.FilterMessage("notes updated").Len())
	require.Len(t, saved, 1)
	assert.Equal(t, 1, saved[0].(*progress.SnapshotSavedEvent).Grids)
}

func TestService_Summary(t *testing.T) {
	svc := openTestService(t, &memoryRepository{}, func(d *Deps) {
		d.Buildings = progress.BuildingRange(101, 103)
	})
	ctx := context.Background()

	_, err := svc.OnCellClick(ctx, 101, progress.ProcessIndoorUnit, 0, "1")
	require.NoError(t, err)

	summary := svc.Summary(ctx)
	require.Len(t, summary, 12)
	assert.Equal(t, GridSummary{
		Building: "101동", Process: "indoor-unit", Marked: 1, Total: 80, Ratio: 1.0 / 80, Loaded: true,
	}, summary[0])
	assert.Equal(t, "103동", summary[8].Building)
	assert.Equal(t, 60, summary[8].Total)
	assert.False(t, summary[8].Loaded)
}

func TestService_Site(t *testing.T) {
	svc := openTestService(t, &memoryRepository{})

	site := svc.Site()
	assert.Equal(t, DefaultSiteName, site.Name)
	assert.Len(t, site.Buildings, 20)
	assert.Equal(t, "101동", site.Buildings[0])
	assert.Equal(t, "120동", site.Buildings[19])
	assert.Equal(t, ProcessView{ID: "panel", Name: "판넬"}, site.Processes[2])
	assert.Equal(t, 20, site.Floors[0])
}

func TestService_CloseWarnsAboutUnsavedChanges(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	repo := &memoryRepository{}
	svc, err := Open(context.Background(), Deps{Repository: repo, Logger: zap.New(core), Clock: fixedClock})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.OnCellClick(ctx, 101, progress.ProcessIndoorUnit, 0, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.DirtyCount())
	assert.False(t, svc.Closed())
	require.NoError(t, svc.Close(ctx))
	require.NoError(t, svc.Close(ctx))
	assert.True(t, svc.Closed())

	assert.True(t, repo.closed)
	assert.Equal(t, 1, logs.FilterMessage("closing with unsaved changes").Len())

	_, err = svc.OnCellClick(ctx, 101, progress.ProcessIndoorUnit, 0, "1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.ErrorIs(t, svc.OnSaveRequested(ctx), shared.ErrInvalidState)
}
