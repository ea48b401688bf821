package progress

import (
	"testing"
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridStore_GetCreatesAndCaches(t *testing.T) {
	store := NewGridStore(progress.DefaultLayoutResolver())

	first := store.Get(101, progress.ProcessIndoorUnit)
	second := store.Get(101, progress.ProcessIndoorUnit)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []string{"1", "2", "3", "4"}, first.Units)
	assert.Len(t, first.Rows, 20)
}

func TestGridStore_SetReplaces(t *testing.T) {
	resolver := progress.DefaultLayoutResolver()
	store := NewGridStore(resolver)
	original := store.Get(101, progress.ProcessPanel)

	replacement := progress.NewGridTable(progress.NewGridKey(101, progress.ProcessPanel), resolver)
	store.Set(101, progress.ProcessPanel, replacement)

	got := store.Get(101, progress.ProcessPanel)
	assert.Same(t, replacement, got)
	assert.NotSame(t, original, got)
}

func TestGridStore_SnapshotIsDetached(t *testing.T) {
	store := NewGridStore(progress.DefaultLayoutResolver())
	live := store.Get(103, progress.ProcessOutdoorUnit)

	snapshot := store.Snapshot()
	_, _, err := live.Toggle(0, "1", time.Now())
	require.NoError(t, err)

	copied := snapshot[live.Key]
	require.NotNil(t, copied)
	assert.False(t, copied.Rows[0].Cells[0].IsMarked())
	assert.True(t, live.Rows[0].Cells[0].IsMarked())
}

func TestGridStore_KeysSorted(t *testing.T) {
	store := NewGridStore(progress.DefaultLayoutResolver())
	store.Get(110, progress.ProcessPanel)
	store.Get(101, progress.ProcessCommissioning)
	store.Get(101, progress.ProcessIndoorUnit)

	assert.Equal(t, []progress.GridKey{
		progress.NewGridKey(101, progress.ProcessIndoorUnit),
		progress.NewGridKey(101, progress.ProcessCommissioning),
		progress.NewGridKey(110, progress.ProcessPanel),
	}, store.Keys())
}

func TestGridStore_DirtyTracking(t *testing.T) {
	store := NewGridStore(progress.DefaultLayoutResolver())
	a := progress.NewGridKey(102, progress.ProcessPanel)
	b := progress.NewGridKey(101, progress.ProcessPanel)

	assert.Empty(t, store.Dirty())
	store.MarkDirty(a)
	store.MarkDirty(b)
	store.MarkDirty(a)
	assert.Equal(t, []progress.GridKey{b, a}, store.Dirty())

	store.ClearDirty()
	assert.Empty(t, store.Dirty())
}
