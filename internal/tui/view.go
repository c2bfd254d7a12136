package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/gridbase/internal/grid"
	"github.com/mesh-intelligence/gridbase/internal/nav"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// pendingCell is shown for rows whose page has not loaded.
const pendingCell = "…"

const (
	minColWidth = 4
	maxColWidth = 30
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + m.title))
	b.WriteString("\n")

	sel := m.g.Selection()
	cols := m.g.VisibleColumns()
	if len(cols) == 0 {
		b.WriteString(dimStyle.Render(" (no fields)"))
		b.WriteString("\n")
	} else {
		m.writeGrid(&b, cols, sel)
	}

	b.WriteString(m.statusLine(sel))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(" arrows move  enter edit  esc cancel  ctrl+n add row  ctrl+x delete row  alt+↑/↓ move row  pgup/pgdn scroll  ctrl+c quit"))
	return b.String()
}

// writeGrid draws the header, separator and visible rows, padded to the
// data height.
func (m Model) writeGrid(b *strings.Builder, cols []grid.Column, sel nav.Selection) {
	items := m.g.Visible()
	widths := colWidths(cols, items)
	selRow, selCol, selected := sel.Cell()
	editing := sel.Mode() == nav.Editing

	var hdr, sep strings.Builder
	for ci, c := range cols {
		cell := fmt.Sprintf(" %-*s ", widths[ci], clip(c.Name, widths[ci]))
		if headerCol, ok := sel.ColumnSelected(); ok && headerCol == ci {
			hdr.WriteString(cursorStyle.Render(cell))
		} else {
			hdr.WriteString(headerStyle.Render(cell))
		}
		sep.WriteString(dimStyle.Render(strings.Repeat("─", widths[ci]+2)))
		if ci < len(cols)-1 {
			hdr.WriteString(dimStyle.Render("|"))
			sep.WriteString(dimStyle.Render("┼"))
		}
	}
	b.WriteString(hdr.String() + "\n" + sep.String() + "\n")

	for _, it := range items {
		for ci, c := range cols {
			display := pendingCell
			if !it.Pending {
				display = it.Row.Value(c.ID)
			}
			here := selected && it.Index == selRow && ci == selCol
			if here && editing {
				display = sel.Buffer() + "_"
			}
			cell := " " + align(display, c.Type, widths[ci]) + " "
			if here {
				b.WriteString(cursorStyle.Render(cell))
			} else {
				b.WriteString(cell)
			}
			if ci < len(cols)-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString("\n")
	}
	for i := len(items); i < m.dataHeight(); i++ {
		b.WriteString("\n")
	}
}

func (m Model) statusLine(sel nav.Selection) string {
	if m.err != nil {
		return errorStyle.Render(" error: " + m.err.Error())
	}
	total, known := m.g.Frame().Total()
	count := fmt.Sprintf("%d", total)
	if !known {
		count = "~" + count
	}
	pos := "-"
	if row, col, ok := sel.Cell(); ok {
		pos = fmt.Sprintf("%d,%d", row+1, col+1)
	}
	status := fmt.Sprintf(" [%s] %s  %s rows", pos, sel.Mode(), count)
	if m.status != "" {
		status += "  " + m.status
	}
	return statusStyle.Render(status)
}

// colWidths sizes each column to its name and the widest visible value.
func colWidths(cols []grid.Column, items []grid.Item) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		w := lipgloss.Width(c.Name)
		for _, it := range items {
			if it.Pending {
				continue
			}
			if vw := lipgloss.Width(it.Row.Value(c.ID)); vw > w {
				w = vw
			}
		}
		widths[i] = min(max(w, minColWidth), maxColWidth)
	}
	return widths
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "."
}

// align pads s to width, right-aligning numbers.
func align(s, columnType string, width int) string {
	s = clip(s, width)
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	if columnType == types.ColumnNumber {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}
