package ux

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Tabular is implemented by listings the text formatter renders as a table.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// Table is a ready-made Tabular.
type Table struct {
	Columns []string
	Data    [][]string
	// Empty is printed instead of a table when Data has no rows.
	Empty string
}

// Headers implements Tabular.
func (t Table) Headers() []string { return t.Columns }

// Rows implements Tabular.
func (t Table) Rows() [][]string { return t.Data }

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderTable draws t with a rounded border. With noColor set the output
// carries no ANSI styling.
func RenderTable(t Tabular, noColor bool) string {
	rows := t.Rows()
	if len(rows) == 0 {
		if e, ok := t.(Table); ok && e.Empty != "" {
			return e.Empty
		}
	}

	header, cell, border := headerStyle, cellStyle, borderStyle
	if noColor {
		header = lipgloss.NewStyle().Padding(0, 1)
		cell = lipgloss.NewStyle().Padding(0, 1)
		border = lipgloss.NewStyle()
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		Headers(t.Headers()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return tbl.Render()
}
