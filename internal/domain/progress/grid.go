package progress

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
)

// Frozen column identifiers. They cannot be toggled.
const (
	FloorColumn = "층"
	NotesColumn = "비고"
	// UnitSuffix is the counter some stored layouts append to unit columns ("1호").
	UnitSuffix = "호"
	// FloorSuffix is appended to floor numbers in the floor column ("20F").
	FloorSuffix = "F"
)

// AggregateTypeGridTable is the aggregate type of grid tables
const AggregateTypeGridTable = "GridTable"

var gridNamespace = uuid.MustParse("6f1d7c2e-5b0a-4f43-9a51-2d3c8e4b7a10")

// GridKey identifies one grid by building and process.
type GridKey struct {
	Building Building
	Process  Process
}

// NewGridKey creates a new GridKey
func NewGridKey(b Building, p Process) GridKey {
	return GridKey{Building: b, Process: p}
}

// String renders the key as "101동/indoor-unit".
func (k GridKey) String() string {
	return k.Building.String() + "/" + string(k.Process)
}

// ParseGridKey parses the String form of a key.
func ParseGridKey(s string) (GridKey, error) {
	building, process, ok := strings.Cut(s, "/")
	if !ok {
		return GridKey{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid grid key %q", s))
	}
	b, err := ParseBuilding(building)
	if err != nil {
		return GridKey{}, err
	}
	p, err := ParseProcess(process)
	if err != nil {
		return GridKey{}, err
	}
	return NewGridKey(b, p), nil
}

// AggregateID is a stable identifier derived from the key.
func (k GridKey) AggregateID() uuid.UUID {
	return uuid.NewSHA1(gridNamespace, []byte(k.String()))
}

// SortGridKeys orders keys by building, then by on-site process order.
func SortGridKeys(keys []GridKey) {
	order := make(map[Process]int)
	for i, p := range AllProcesses() {
		order[p] = i
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Building != keys[j].Building {
			return keys[i].Building < keys[j].Building
		}
		oi, iok := order[keys[i].Process]
		oj, jok := order[keys[j].Process]
		if iok && jok && oi != oj {
			return oi < oj
		}
		return keys[i].Process < keys[j].Process
	})
}

// NormalizeColumnID folds historical column spellings to their canonical id:
// "floor" to "층", "notes" to "비고" and "1호" to "1".
func NormalizeColumnID(s string) string {
	v := normalizeIdentifier(s)
	switch strings.ToLower(v) {
	case FloorColumn, "floor":
		return FloorColumn
	case NotesColumn, "notes", "note", "memo":
		return NotesColumn
	}
	return strings.TrimSpace(strings.TrimSuffix(v, UnitSuffix))
}

// IsFrozenColumn reports whether column is excluded from toggling.
func IsFrozenColumn(column string) bool {
	c := NormalizeColumnID(column)
	return c == FloorColumn || c == NotesColumn
}

// FloorLabel renders a floor the way the floor column shows it, e.g. "20F".
func FloorLabel(floor int) string {
	return strconv.Itoa(floor) + FloorSuffix
}

// GridRow is one floor of a grid.
type GridRow struct {
	Floor int
	Cells []Cell
	Notes string
}

// GridTable is the floor by unit matrix of one (building, process) pair.
type GridTable struct {
	shared.EventRecorder
	Key   GridKey
	Units []string
	Rows  []GridRow
}

// NewGridTable generates a default table: every cell unmarked with the
// label of its position.
func NewGridTable(key GridKey, resolver LayoutResolver) *GridTable {
	units := resolver.Resolve(key.Building)
	floors := resolver.Floors()
	rows := make([]GridRow, 0, len(floors))
	for _, floor := range floors {
		cells := make([]Cell, len(units))
		for i, unit := range units {
			cells[i] = Unmarked(UnitLabel(floor, unit))
		}
		rows = append(rows, GridRow{Floor: floor, Cells: cells})
	}
	return &GridTable{Key: key, Units: units, Rows: rows}
}

// ID returns the aggregate identifier of the table
func (t *GridTable) ID() uuid.UUID {
	return t.Key.AggregateID()
}

// Columns returns the full column list: floor, units, notes.
func (t *GridTable) Columns() []string {
	cols := make([]string, 0, len(t.Units)+2)
	cols = append(cols, FloorColumn)
	cols = append(cols, t.Units...)
	return append(cols, NotesColumn)
}

// UnitIndex returns the index of a unit column, or -1.
func (t *GridTable) UnitIndex(column string) int {
	c := NormalizeColumnID(column)
	for i, u := range t.Units {
		if u == c {
			return i
		}
	}
	return -1
}

// RowIndex returns the index of the row for floor, or -1.
func (t *GridTable) RowIndex(floor int) int {
	for i, r := range t.Rows {
		if r.Floor == floor {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, column).
func (t *GridTable) Cell(row int, column string) (Cell, error) {
	if err := t.checkRow(row); err != nil {
		return Cell{}, err
	}
	col := t.UnitIndex(column)
	if col < 0 {
		return Cell{}, unknownColumnError(column)
	}
	return t.Rows[row].Cells[col], nil
}

// Toggle flips the cell at (row, column) and records a CellToggled event.
// A toggle on a frozen column changes nothing and reports false.
func (t *GridTable) Toggle(row int, column string, now time.Time) (Cell, bool, error) {
	if err := t.checkRow(row); err != nil {
		return Cell{}, false, err
	}
	if IsFrozenColumn(column) {
		return Cell{}, false, nil
	}
	col := t.UnitIndex(column)
	if col < 0 {
		return Cell{}, false, unknownColumnError(column)
	}
	next := t.Rows[row].Cells[col].Toggle(now)
	t.Rows[row].Cells[col] = next
	t.AddDomainEvent(NewCellToggledEvent(t.Key, t.Rows[row].Floor, t.Units[col], next, now))
	return next, true, nil
}

// SetNotes replaces the notes of a row. Unchanged text records no event.
func (t *GridTable) SetNotes(row int, text string, now time.Time) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	if t.Rows[row].Notes == text {
		return nil
	}
	t.Rows[row].Notes = text
	t.AddDomainEvent(NewNotesUpdatedEvent(t.Key, t.Rows[row].Floor, text, now))
	return nil
}

// MarkedCount returns the number of marked cells.
func (t *GridTable) MarkedCount() int {
	n := 0
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			if c.IsMarked() {
				n++
			}
		}
	}
	return n
}

// TotalCells returns the number of unit cells.
func (t *GridTable) TotalCells() int {
	return len(t.Rows) * len(t.Units)
}

// Clone returns a deep copy without pending events.
func (t *GridTable) Clone() *GridTable {
	out := &GridTable{
		Key:   t.Key,
		Units: cloneStrings(t.Units),
		Rows:  make([]GridRow, len(t.Rows)),
	}
	for i, r := range t.Rows {
		cells := make([]Cell, len(r.Cells))
		copy(cells, r.Cells)
		out.Rows[i] = GridRow{Floor: r.Floor, Cells: cells, Notes: r.Notes}
	}
	return out
}

// ToStored serializes the table into its row-major text form.
func (t *GridTable) ToStored() StoredTable {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, 0, len(r.Cells)+2)
		row = append(row, FloorLabel(r.Floor))
		for _, c := range r.Cells {
			row = append(row, c.Encode())
		}
		rows[i] = append(row, r.Notes)
	}
	return StoredTable{Columns: t.Columns(), Rows: rows}
}

func (t *GridTable) checkRow(row int) error {
	if row < 0 || row >= len(t.Rows) {
		return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("row %d out of range [0,%d)", row, len(t.Rows)))
	}
	return nil
}

func unknownColumnError(column string) error {
	return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("unknown column %q", column))
}
