package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows in a compact fixed-width layout. Widths are measured in
// runes so titles with non-ASCII characters keep the columns aligned.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // cap per column, 0 means unbounded
}

// Render returns the formatted table. A table without headers renders as
// nothing.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.columnWidths()

	head := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	body := lipgloss.NewStyle().Foreground(ColorText)
	rule := lipgloss.NewStyle().Foreground(ColorSecondary)

	var sb strings.Builder
	sb.WriteString(renderRow(t.Headers, widths, head))

	divider := make([]string, len(widths))
	for i, w := range widths {
		divider[i] = rule.Render(strings.Repeat("─", w))
	}
	sb.WriteString(" " + strings.Join(divider, "──") + "\n")

	for _, row := range t.Rows {
		sb.WriteString(renderRow(row, widths, body))
	}
	return sb.String()
}

// renderRow styles one line, padding short rows with empty cells and
// clipping long values to the column width.
func renderRow(row []string, widths []int, style lipgloss.Style) string {
	cells := make([]string, len(widths))
	for i := range widths {
		val := ""
		if i < len(row) {
			val = clip(row[i], widths[i])
		}
		cells[i] = style.Render(pad(val, widths[i]))
	}
	return " " + strings.Join(cells, "  ") + "\n"
}

// columnWidths sizes each column to its widest cell, header included, capped
// at MaxWidth when set.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if n := utf8.RuneCountInString(row[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}
	if t.MaxWidth > 0 {
		for i, w := range widths {
			if w > t.MaxWidth {
				widths[i] = t.MaxWidth
			}
		}
	}
	return widths
}

// clip shortens a value to the column width, ending in an ellipsis.
func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// pad right-pads a value to the column width in runes.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// TruncateID shortens a goal id for display, the first 8 characters of the
// UUID.
func TruncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
