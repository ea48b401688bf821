package progress

import (
	"regexp"
	"strings"
	"time"
)

// Cell text markers.
const (
	// MarkDelimiter separates a label from its completion stamp in the stored text form.
	MarkDelimiter = "✔"
	// LegacyMarkSentinel is the bare completion marker written by early snapshots.
	LegacyMarkSentinel = "V"
	// StampLayout is the date format of a completion stamp.
	StampLayout = "2006-01-02"
	// HighlightColor is the fill used for completed cells.
	HighlightColor = "#e06000"
)

// CellState is the state of a single unit cell.
type CellState int

const (
	CellUnmarked CellState = iota
	CellMarked
)

// String returns the state name
func (s CellState) String() string {
	if s == CellMarked {
		return "marked"
	}
	return "unmarked"
}

// CellStyle is the rendering treatment of a cell.
type CellStyle string

const (
	StylePlain     CellStyle = "plain"
	StyleHighlight CellStyle = "highlight"
)

// Cell is one unit cell. Label is the stable unit number derived from the
// cell's position; Stamp is only meaningful while the cell is marked.
type Cell struct {
	Label string
	State CellState
	Stamp string
}

// Unmarked returns an idle cell carrying label.
func Unmarked(label string) Cell {
	return Cell{Label: label, State: CellUnmarked}
}

// Marked returns a completed cell carrying label and stamp.
func Marked(label, stamp string) Cell {
	return Cell{Label: label, State: CellMarked, Stamp: stamp}
}

// IsMarked reports whether the cell is completed.
func (c Cell) IsMarked() bool {
	return c.State == CellMarked
}

// Toggle flips the cell. Marking stamps the date of now; clearing drops the
// stamp and keeps the label.
func (c Cell) Toggle(now time.Time) Cell {
	if c.IsMarked() {
		return Unmarked(c.Label)
	}
	return Marked(c.Label, now.Format(StampLayout))
}

// Style is the rendering treatment implied by the cell state.
func (c Cell) Style() CellStyle {
	if c.IsMarked() {
		return StyleHighlight
	}
	return StylePlain
}

// Encode returns the stored text form: the bare label when unmarked,
// "<label> ✔ <stamp>" when marked.
func (c Cell) Encode() string {
	if !c.IsMarked() {
		return c.Label
	}
	if c.Stamp == "" {
		return c.Label + " " + MarkDelimiter
	}
	return c.Label + " " + MarkDelimiter + " " + c.Stamp
}

// String implements fmt.Stringer
func (c Cell) String() string {
	return c.Encode()
}

// dateAnnotation matches a trailing "(2026-10-19)" or "(10/19)".
var dateAnnotation = regexp.MustCompile(`^(.*?)\s*\((\d{4}-\d{1,2}-\d{1,2}|\d{1,2}/\d{1,2})\)$`)

// DecodeCell classifies a stored text value. A value is marked iff it
// carries the delimiter, is the legacy sentinel, or ends in a date annotation.
// The legacy sentinel decodes with an empty label; the caller restores the
// label from the cell position.
func DecodeCell(raw string) Cell {
	v := strings.TrimSpace(raw)
	if v == LegacyMarkSentinel {
		return Marked("", "")
	}
	if i := strings.Index(v, MarkDelimiter); i >= 0 {
		label := strings.TrimSpace(v[:i])
		stamp := strings.TrimSpace(v[i+len(MarkDelimiter):])
		return Marked(label, stamp)
	}
	if m := dateAnnotation.FindStringSubmatch(v); m != nil {
		return Marked(m[1], m[2])
	}
	return Unmarked(v)
}
