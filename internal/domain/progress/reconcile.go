package progress

import (
	"fmt"
	"strconv"
	"strings"
)

// ReconcileOutcome classifies what reconciliation did to a stored table.
type ReconcileOutcome string

const (
	// ReconcileKept means the stored table matched the expected layout.
	ReconcileKept ReconcileOutcome = "kept"
	// ReconcileNarrowed means retired unit columns were dropped.
	ReconcileNarrowed ReconcileOutcome = "narrowed"
	// ReconcileRegenerated means the stored table was discarded.
	ReconcileRegenerated ReconcileOutcome = "regenerated"
)

// ReconcileReport describes the result of reconciling one table.
type ReconcileReport struct {
	Key     GridKey
	Outcome ReconcileOutcome
	// Dropped lists unit columns removed while narrowing.
	Dropped []string
	// Reason explains a regeneration.
	Reason string
	// Upgraded is set when legacy spellings or markers were rewritten.
	Upgraded bool
}

// NeedsNotice reports whether the operator should be told about the result.
func (r ReconcileReport) NeedsNotice() bool {
	return r.Outcome != ReconcileKept
}

// Message is the operator facing description of the result.
func (r ReconcileReport) Message() string {
	switch r.Outcome {
	case ReconcileNarrowed:
		return fmt.Sprintf("%s %s: retired unit columns %s were dropped",
			r.Key.Building, r.Key.Process.DisplayName(), strings.Join(r.Dropped, ", "))
	case ReconcileRegenerated:
		return fmt.Sprintf("%s %s: stored table was reset to the current layout (%s)",
			r.Key.Building, r.Key.Process.DisplayName(), r.Reason)
	default:
		return fmt.Sprintf("%s %s: stored table matches the current layout",
			r.Key.Building, r.Key.Process.DisplayName())
	}
}

// Reconcile adapts a stored table to the layout the resolver currently
// expects for key. Retired unit columns are dropped and the rest keep their
// values in resolver order. A table that lacks an expected column, has the
// wrong row shape, or holds unmarked values that differ from their positional
// label is discarded and a fresh default table is returned instead.
func Reconcile(stored StoredTable, key GridKey, resolver LayoutResolver) (*GridTable, ReconcileReport) {
	report := ReconcileReport{Key: key, Outcome: ReconcileKept}
	regenerate := func(reason string) (*GridTable, ReconcileReport) {
		return NewGridTable(key, resolver), ReconcileReport{
			Key:     key,
			Outcome: ReconcileRegenerated,
			Reason:  reason,
		}
	}

	floorIdx, notesIdx := -1, -1
	unitIdx := make(map[string]int, len(stored.Columns))
	var unitOrder []string
	for i, raw := range stored.Columns {
		col := NormalizeColumnID(raw)
		if col != raw {
			report.Upgraded = true
		}
		switch col {
		case FloorColumn:
			if floorIdx >= 0 {
				return regenerate("duplicate floor column")
			}
			floorIdx = i
		case NotesColumn:
			if notesIdx >= 0 {
				return regenerate("duplicate notes column")
			}
			notesIdx = i
		default:
			if _, dup := unitIdx[col]; dup {
				return regenerate(fmt.Sprintf("duplicate column %q", col))
			}
			unitIdx[col] = i
			unitOrder = append(unitOrder, col)
		}
	}
	if floorIdx < 0 || notesIdx < 0 {
		report.Upgraded = true
	}

	units := resolver.Resolve(key.Building)
	expected := make(map[string]struct{}, len(units))
	for _, u := range units {
		if _, ok := unitIdx[u]; !ok {
			return regenerate(fmt.Sprintf("missing unit column %q", u))
		}
		expected[u] = struct{}{}
	}
	for _, col := range unitOrder {
		if _, ok := expected[col]; !ok {
			report.Dropped = append(report.Dropped, col)
		}
	}

	floors := resolver.Floors()
	if len(stored.Rows) != len(floors) {
		return regenerate(fmt.Sprintf("expected %d rows, found %d", len(floors), len(stored.Rows)))
	}

	table := &GridTable{Key: key, Units: units, Rows: make([]GridRow, len(floors))}
	for r, floor := range floors {
		values := stored.Rows[r]
		if len(values) != len(stored.Columns) {
			return regenerate(fmt.Sprintf("row %d has %d values for %d columns", r, len(values), len(stored.Columns)))
		}
		if floorIdx >= 0 && !floorMatches(values[floorIdx], floor) {
			return regenerate(fmt.Sprintf("row %d is labelled %q, expected %q", r, values[floorIdx], FloorLabel(floor)))
		}

		row := GridRow{Floor: floor, Cells: make([]Cell, len(units))}
		for c, unit := range units {
			raw := values[unitIdx[unit]]
			cell, upgraded, ok := restoreCell(raw, UnitLabel(floor, unit))
			if !ok {
				return regenerate(fmt.Sprintf("cell %q does not match label %q", raw, UnitLabel(floor, unit)))
			}
			report.Upgraded = report.Upgraded || upgraded
			row.Cells[c] = cell
		}
		if notesIdx >= 0 {
			row.Notes = values[notesIdx]
		}
		table.Rows[r] = row
	}

	for i, u := range units {
		if unitOrder[i] != u {
			report.Upgraded = true
			break
		}
	}
	if len(report.Dropped) > 0 {
		report.Outcome = ReconcileNarrowed
	}
	return table, report
}

// restoreCell decodes raw at a position whose label is label. Marked values
// take the positional label; unmarked values must already equal it, except
// blank values which legacy snapshots used for idle cells.
func restoreCell(raw, label string) (Cell, bool, bool) {
	cell := DecodeCell(raw)
	if cell.IsMarked() {
		restored := Marked(label, cell.Stamp)
		return restored, restored.Encode() != raw, true
	}
	switch cell.Label {
	case label:
		return cell, cell.Label != raw, true
	case "":
		return Unmarked(label), true, true
	}
	return Cell{}, false, false
}

func floorMatches(raw string, floor int) bool {
	v := normalizeIdentifier(raw)
	v = strings.TrimSuffix(strings.TrimSuffix(v, "층"), FloorSuffix)
	v = strings.TrimSuffix(v, "f")
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return err == nil && n == floor
}
