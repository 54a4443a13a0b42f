package core

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// DefaultPreviewRows is how many output rows the summary shows.
const DefaultPreviewRows = 5

var previewHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var previewCellStyle = lipgloss.NewStyle().Padding(0, 1)

// buildPreview returns the output header followed by up to n output rows.
func buildPreview(header []string, records []PatientRecord, decimal byte, n int) [][]string {
	if n <= 0 {
		return nil
	}
	if n > len(records) {
		n = len(records)
	}
	rows := make([][]string, 0, n+1)
	rows = append(rows, header)
	for _, rec := range records[:n] {
		rows = append(rows, OutputRow(rec, decimal))
	}
	return rows
}

// RenderPreview draws preview rows (header first) as a bordered table.
// Returns "" when there is nothing to show.
func RenderPreview(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return previewHeaderStyle
			}
			return previewCellStyle
		}).
		Headers(rows[0]...).
		Rows(rows[1:]...)
	return t.String()
}
