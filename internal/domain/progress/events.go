package progress

import (
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
)

// Event type constants
const (
	EventTypeCellToggled    = "CellToggled"
	EventTypeNotesUpdated   = "NotesUpdated"
	EventTypeGridReconciled = "GridReconciled"
	EventTypeSnapshotSaved  = "SnapshotSaved"
	AggregateTypeSnapshot   = "Snapshot"
)

// CellToggledEvent is raised when an operator toggles a unit cell
type CellToggledEvent struct {
	shared.BaseDomainEvent
	Building Building  `json:"building"`
	Process  Process   `json:"process"`
	Floor    int       `json:"floor"`
	Unit     string    `json:"unit"`
	Label    string    `json:"label"`
	State    CellState `json:"state"`
	Stamp    string    `json:"stamp,omitempty"`
}

// NewCellToggledEvent creates a new CellToggledEvent
func NewCellToggledEvent(key GridKey, floor int, unit string, cell Cell, at time.Time) *CellToggledEvent {
	return &CellToggledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCellToggled, AggregateTypeGridTable, key.AggregateID(), at),
		Building:        key.Building,
		Process:         key.Process,
		Floor:           floor,
		Unit:            unit,
		Label:           cell.Label,
		State:           cell.State,
		Stamp:           cell.Stamp,
	}
}

// NotesUpdatedEvent is raised when the notes of a floor change
type NotesUpdatedEvent struct {
	shared.BaseDomainEvent
	Building Building `json:"building"`
	Process  Process  `json:"process"`
	Floor    int      `json:"floor"`
	Notes    string   `json:"notes"`
}

// NewNotesUpdatedEvent creates a new NotesUpdatedEvent
func NewNotesUpdatedEvent(key GridKey, floor int, notes string, at time.Time) *NotesUpdatedEvent {
	return &NotesUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeNotesUpdated, AggregateTypeGridTable, key.AggregateID(), at),
		Building:        key.Building,
		Process:         key.Process,
		Floor:           floor,
		Notes:           notes,
	}
}

// GridReconciledEvent is raised when a loaded table did not match the
// current layout and was narrowed or regenerated.
type GridReconciledEvent struct {
	shared.BaseDomainEvent
	Building Building         `json:"building"`
	Process  Process          `json:"process"`
	Outcome  ReconcileOutcome `json:"outcome"`
	Dropped  []string         `json:"dropped,omitempty"`
	Reason   string           `json:"reason,omitempty"`
	Message  string           `json:"message"`
}

// NewGridReconciledEvent creates a new GridReconciledEvent
func NewGridReconciledEvent(report ReconcileReport, at time.Time) *GridReconciledEvent {
	return &GridReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGridReconciled, AggregateTypeGridTable, report.Key.AggregateID(), at),
		Building:        report.Key.Building,
		Process:         report.Key.Process,
		Outcome:         report.Outcome,
		Dropped:         report.Dropped,
		Reason:          report.Reason,
		Message:         report.Message(),
	}
}

// SnapshotSavedEvent is raised after the full snapshot was committed
type SnapshotSavedEvent struct {
	shared.BaseDomainEvent
	Grids int `json:"grids"`
}

// NewSnapshotSavedEvent creates a new SnapshotSavedEvent
func NewSnapshotSavedEvent(grids int, at time.Time) *SnapshotSavedEvent {
	return &SnapshotSavedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSnapshotSaved, AggregateTypeSnapshot, snapshotAggregateID, at),
		Grids:           grids,
	}
}
