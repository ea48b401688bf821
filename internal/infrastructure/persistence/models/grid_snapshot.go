package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
)

// GridSnapshotModel is one saved grid. The snapshot is the full set of rows
// in the table; saves replace every row.
type GridSnapshotModel struct {
	ID       uuid.UUID `gorm:"primaryKey;size:36"`
	Building int       `gorm:"not null;uniqueIndex:idx_grid_snapshots_key"`
	Process  string    `gorm:"size:32;not null;uniqueIndex:idx_grid_snapshots_key"`
	Columns  string    `gorm:"type:text;not null"`
	Rows     string    `gorm:"type:text;not null"`
	SavedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GridSnapshotModel) TableName() string {
	return "grid_snapshots"
}

// Key returns the grid key of the row
func (m *GridSnapshotModel) Key() (progress.GridKey, error) {
	p, err := progress.ParseProcess(m.Process)
	if err != nil {
		return progress.GridKey{}, err
	}
	if m.Building <= 0 {
		return progress.GridKey{}, fmt.Errorf("invalid building %d", m.Building)
	}
	return progress.NewGridKey(progress.Building(m.Building), p), nil
}

// ToDomain converts the row to a stored table
func (m *GridSnapshotModel) ToDomain() (progress.StoredTable, error) {
	var table progress.StoredTable
	if err := json.Unmarshal([]byte(m.Columns), &table.Columns); err != nil {
		return progress.StoredTable{}, fmt.Errorf("decode columns: %w", err)
	}
	if err := json.Unmarshal([]byte(m.Rows), &table.Rows); err != nil {
		return progress.StoredTable{}, fmt.Errorf("decode rows: %w", err)
	}
	return table, nil
}

// FromDomain populates the row from a stored table
func (m *GridSnapshotModel) FromDomain(key progress.GridKey, table progress.StoredTable, savedAt time.Time) error {
	columns, err := json.Marshal(table.Columns)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}
	rows, err := json.Marshal(table.Rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	m.ID = key.AggregateID()
	m.Building = key.Building.Code()
	m.Process = string(key.Process)
	m.Columns = string(columns)
	m.Rows = string(rows)
	m.SavedAt = savedAt
	return nil
}
