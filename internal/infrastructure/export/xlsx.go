// Package export renders progress grids as spreadsheets.
package export

import (
	"fmt"
	"strings"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Filename returns the download name for a grid, e.g. "101동_실내기.xlsx"
func Filename(key progress.GridKey) string {
	return SheetName(key) + ".xlsx"
}

// SheetName returns the worksheet name for a grid
func SheetName(key progress.GridKey) string {
	return key.Building.String() + "_" + key.Process.DisplayName()
}

// WriteXLSX renders the given grids, one worksheet each, in the order given.
// Marked cells are filled with the highlight colour.
func WriteXLSX(tables ...*progress.GridTable) ([]byte, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no grids to export")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	for i, table := range tables {
		name := SheetName(table.Key)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeGrid(f, name, table, styles); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetStyles struct {
	header    int
	highlight int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("header style: %w", err)
	}
	highlight, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{strings.TrimPrefix(progress.HighlightColor, "#")},
		},
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("highlight style: %w", err)
	}
	return sheetStyles{header: header, highlight: highlight}, nil
}

func writeGrid(f *excelize.File, sheet string, table *progress.GridTable, styles sheetStyles) error {
	header := make([]any, 0, len(table.Units)+2)
	header = append(header, progress.FloorColumn)
	for _, unit := range table.Units {
		header = append(header, unit+progress.UnitSuffix)
	}
	header = append(header, progress.NotesColumn)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, styles.header); err != nil {
		return err
	}

	for i, row := range table.Rows {
		r := i + 2
		values := make([]any, 0, len(row.Cells)+2)
		values = append(values, progress.FloorLabel(row.Floor))
		for _, c := range row.Cells {
			values = append(values, c.String())
		}
		values = append(values, row.Notes)

		start, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}
		for j, c := range row.Cells {
			if c.Style() != progress.StyleHighlight {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+2, r)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles.highlight); err != nil {
				return err
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", lastCol, 16); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}
