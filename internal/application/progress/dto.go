package progress

import (
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
)

// CellView is one unit cell as presented to the operator
type CellView struct {
	Row     int    `json:"row"`
	Floor   int    `json:"floor"`
	Column  string `json:"column"`
	Label   string `json:"label"`
	Marked  bool   `json:"marked"`
	Stamp   string `json:"stamp,omitempty"`
	Text    string `json:"text"`
	Style   string `json:"style"`
	Changed bool   `json:"changed"`
}

// RowView is one floor of a grid
type RowView struct {
	Index      int        `json:"index"`
	Floor      int        `json:"floor"`
	FloorLabel string     `json:"floor_label"`
	Cells      []CellView `json:"cells"`
	Notes      string     `json:"notes"`
}

// GridView is a full grid with per-cell styling
type GridView struct {
	Building       string    `json:"building"`
	BuildingCode   int       `json:"building_code"`
	Process        string    `json:"process"`
	ProcessName    string    `json:"process_name"`
	Columns        []string  `json:"columns"`
	Units          []string  `json:"units"`
	Rows           []RowView `json:"rows"`
	Marked         int       `json:"marked"`
	Total          int       `json:"total"`
	HighlightColor string    `json:"highlight_color"`
}

// ProcessView names a process
type ProcessView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SiteView describes the tracked site
type SiteView struct {
	Name      string        `json:"name"`
	Buildings []string      `json:"buildings"`
	Processes []ProcessView `json:"processes"`
	Floors    []int         `json:"floors"`
}

// GridSummary is the progress of one (building, process) pair
type GridSummary struct {
	Building string  `json:"building"`
	Process  string  `json:"process"`
	Marked   int     `json:"marked"`
	Total    int     `json:"total"`
	Ratio    float64 `json:"ratio"`
	Loaded   bool    `json:"loaded"`
}

// NoticeLevel grades a notice
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is an informational message for the operator, raised when stored
// data had to be adapted or could not be read.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Grid    string      `json:"grid,omitempty"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

func newCellView(row int, floor int, unit string, cell progress.Cell, changed bool) CellView {
	return CellView{
		Row:     row,
		Floor:   floor,
		Column:  unit,
		Label:   cell.Label,
		Marked:  cell.IsMarked(),
		Stamp:   cell.Stamp,
		Text:    cell.String(),
		Style:   string(cell.Style()),
		Changed: changed,
	}
}

func newGridView(t *progress.GridTable) *GridView {
	rows := make([]RowView, len(t.Rows))
	for i, r := range t.Rows {
		cells := make([]CellView, len(r.Cells))
		for j, c := range r.Cells {
			cells[j] = newCellView(i, r.Floor, t.Units[j], c, false)
		}
		rows[i] = RowView{
			Index:      i,
			Floor:      r.Floor,
			FloorLabel: progress.FloorLabel(r.Floor),
			Cells:      cells,
			Notes:      r.Notes,
		}
	}
	return &GridView{
		Building:       t.Key.Building.String(),
		BuildingCode:   t.Key.Building.Code(),
		Process:        string(t.Key.Process),
		ProcessName:    t.Key.Process.DisplayName(),
		Columns:        t.Columns(),
		Units:          append([]string(nil), t.Units...),
		Rows:           rows,
		Marked:         t.MarkedCount(),
		Total:          t.TotalCells(),
		HighlightColor: progress.HighlightColor,
	}
}
