package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	appprogress "github.com/hsa8903-tech/ulsan-daun/internal/application/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7a7a7a"))
	highlightStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(lipgloss.Color(progress.HighlightColor)).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true)
)

// renderGrid draws a grid as an aligned table, marked cells highlighted.
func renderGrid(view *appprogress.GridView) string {
	lines := make([][]string, len(view.Rows))
	for i, row := range view.Rows {
		line := make([]string, 0, len(view.Columns))
		line = append(line, row.FloorLabel)
		for _, c := range row.Cells {
			line = append(line, c.Text)
		}
		lines[i] = append(line, strings.ReplaceAll(row.Notes, "\n", " "))
	}

	// Width includes the one-space padding on each side
	widths := make([]int, len(view.Columns))
	for i, h := range view.Columns {
		widths[i] = lipgloss.Width(h)
	}
	for _, line := range lines {
		for i, s := range line {
			if i < len(widths) && lipgloss.Width(s) > widths[i] {
				widths[i] = lipgloss.Width(s)
			}
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(view.Building + " " + view.ProcessName))
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  %d/%d", view.Marked, view.Total)))
	sb.WriteString("\n")

	sep := mutedStyle.Render("|")
	for i, h := range view.Columns {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(headerStyle.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")

	for r, line := range lines {
		cells := view.Rows[r].Cells
		for i, s := range line {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				sb.WriteString(sep)
			}
			style := cellStyle
			if i >= 1 && i <= len(cells) && cells[i-1].Marked {
				style = highlightStyle
			}
			sb.WriteString(style.Width(widths[i]).Render(s))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderCell(c appprogress.CellView) string {
	if c.Marked {
		return highlightStyle.Render(c.Text)
	}
	return cellStyle.Render(c.Text)
}
