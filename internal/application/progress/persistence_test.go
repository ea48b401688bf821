package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestAdapter(repo progress.SnapshotRepository) (*PersistenceAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := NewPersistenceAdapter(repo, progress.DefaultLayoutResolver(), zap.New(core), nil, "memory")
	a.now = fixedClock
	return a, logs
}

func TestPersistenceAdapter_LoadAbsent(t *testing.T) {
	a, _ := newTestAdapter(&memoryRepository{})

	tables, notices := a.Load(context.Background())
	assert.Empty(t, tables)
	assert.Empty(t, notices)
}

func TestPersistenceAdapter_LoadFailureDegrades(t *testing.T) {
	a, logs := newTestAdapter(&memoryRepository{loadErr: errors.New("corrupt snapshot: unexpected EOF")})

	tables, notices := a.Load(context.Background())
	assert.Empty(t, tables)
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeWarning, notices[0].Level)
	assert.Contains(t, notices[0].Message, "unexpected EOF")
	assert.Equal(t, 1, logs.FilterMessage("failed to load snapshot").FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestPersistenceAdapter_LoadSkippedEntries(t *testing.T) {
	snapshot := progress.NewSnapshot(testNow)
	snapshot.Skipped = []string{"df_999_unknown"}
	a, _ := newTestAdapter(&memoryRepository{snapshot: snapshot})

	_, notices := a.Load(context.Background())
	require.Len(t, notices, 1)
	assert.Equal(t, "df_999_unknown", notices[0].Grid)
}

func TestPersistenceAdapter_ShrinkFiveToFour(t *testing.T) {
	key := progress.NewGridKey(101, progress.ProcessIndoorUnit)
	wide := progress.NewGridTable(key, progress.DefaultLayoutResolver(
		progress.WithBuildingLayout(101, progress.SequentialUnits(5)),
	))
	_, _, err := wide.Toggle(0, "2", testNow)
	require.NoError(t, err)
	_, _, err = wide.Toggle(0, "5", testNow)
	require.NoError(t, err)

	snapshot := progress.NewSnapshot(testNow)
	snapshot.Tables[key] = wide.ToStored()
	a, logs := newTestAdapter(&memoryRepository{snapshot: snapshot})

	tables, notices := a.Load(context.Background())
	table := tables[key]
	require.NotNil(t, table)
	assert.Equal(t, []string{"1", "2", "3", "4"}, table.Units)
	assert.True(t, table.Rows[0].Cells[1].IsMarked())
	assert.Equal(t, 1, table.MarkedCount())

	require.Len(t, notices, 1)
	assert.Equal(t, NoticeInfo, notices[0].Level)
	assert.Equal(t, key.String(), notices[0].Grid)
	assert.Equal(t, 1, logs.FilterMessage("stored grid reconciled").Len())

	events := table.GetDomainEvents()
	require.Len(t, events, 1)
	reconciled, ok := events[0].(*progress.GridReconciledEvent)
	require.True(t, ok)
	assert.Equal(t, progress.ReconcileNarrowed, reconciled.Outcome)
	assert.Equal(t, []string{"5"}, reconciled.Dropped)
}

func TestPersistenceAdapter_KeptTablesRaiseNothing(t *testing.T) {
	key := progress.NewGridKey(102, progress.ProcessPanel)
	snapshot := progress.NewSnapshot(testNow)
	snapshot.Tables[key] = progress.NewGridTable(key, progress.DefaultLayoutResolver()).ToStored()
	a, _ := newTestAdapter(&memoryRepository{snapshot: snapshot})

	tables, notices := a.Load(context.Background())
	assert.Empty(t, notices)
	assert.Empty(t, tables[key].GetDomainEvents())
}

func TestPersistenceAdapter_SaveWritesEveryTable(t *testing.T) {
	repo := &memoryRepository{}
	a, _ := newTestAdapter(repo)
	resolver := progress.DefaultLayoutResolver()

	tables := map[progress.GridKey]*progress.GridTable{}
	for _, key := range []progress.GridKey{
		progress.NewGridKey(101, progress.ProcessIndoorUnit),
		progress.NewGridKey(120, progress.ProcessCommissioning),
	} {
		tables[key] = progress.NewGridTable(key, resolver)
	}

	require.NoError(t, a.Save(context.Background(), tables))
	assert.Equal(t, 1, repo.saves)
	assert.Len(t, repo.snapshot.Tables, 2)
	assert.True(t, repo.snapshot.SavedAt.Equal(testNow))
}

func TestPersistenceAdapter_SaveFailure(t *testing.T) {
	cause := errors.New("disk full")
	a, logs := newTestAdapter(&memoryRepository{saveErr: cause})

	err := a.Save(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSnapshotSaveFailed)
	assert.ErrorIs(t, err, cause)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SNAPSHOT_SAVE_FAILED", domainErr.Code)
	assert.Equal(t, 1, logs.FilterMessage("failed to save snapshot").Len())
}
