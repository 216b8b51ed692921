package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders rows under headers with a rounded border. styleCell, when
// set, may override the style of a body cell.
func Table(headers []string, rows [][]string, styleCell func(row, col int, value string) *lipgloss.Style) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if styleCell != nil && row >= 0 && row < len(rows) && col < len(rows[row]) {
				if s := styleCell(row, col, rows[row][col]); s != nil {
					return s.PaddingRight(2)
				}
			}
			return cellStyle
		})
	return t.String()
}

// KeyValues renders aligned label/value lines.
func KeyValues(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(BoldStyle.Render(p[0] + ":"))
		b.WriteString(strings.Repeat(" ", width-lipgloss.Width(p[0])+1))
		b.WriteString(p[1])
	}
	return b.String()
}
