package persistence

import (
	"testing"
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/stretchr/testify/require"
)

var savedAt = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// sampleSnapshot holds a marked 101동 indoor-unit grid and a blank 103동 panel grid.
func sampleSnapshot(t *testing.T) *progress.Snapshot {
	t.Helper()
	resolver := progress.DefaultLayoutResolver()

	indoor := progress.NewGridTable(progress.NewGridKey(101, progress.ProcessIndoorUnit), resolver)
	_, _, err := indoor.Toggle(0, "1", savedAt)
	require.NoError(t, err)
	require.NoError(t, indoor.SetNotes(3, "배관 확인", savedAt))

	panel := progress.NewGridTable(progress.NewGridKey(103, progress.ProcessPanel), resolver)

	snapshot := progress.NewSnapshot(savedAt)
	snapshot.Tables[indoor.Key] = indoor.ToStored()
	snapshot.Tables[panel.Key] = panel.ToStored()
	return snapshot
}
