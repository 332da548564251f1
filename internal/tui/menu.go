package tui

import (
	"strings"

	"github.com/naveenspark/backoffice/internal/navigation"
	"github.com/naveenspark/backoffice/pkg/domain"
)

// menuModel is the filtered navigation tree as a flat, scrollable list.
// Group rows are headers and never take the cursor.
type menuModel struct {
	rows   []navigation.Entry
	cursor int
}

func newMenuModel(items []domain.NavItem) menuModel {
	m := menuModel{rows: navigation.Flatten(items), cursor: -1}
	m.move(1)
	return m
}

func (m *menuModel) move(delta int) {
	for i := m.cursor + delta; i >= 0 && i < len(m.rows); i += delta {
		if !m.rows[i].HasChildren() {
			m.cursor = i
			return
		}
	}
}

// selected returns the leaf under the cursor.
func (m menuModel) selected() (domain.NavItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return domain.NavItem{}, false
	}
	return m.rows[m.cursor].NavItem, true
}

// focus puts the cursor on the row routing to name, if visible.
func (m *menuModel) focus(name string) {
	for i, r := range m.rows {
		if r.To == name && !r.HasChildren() {
			m.cursor = i
			return
		}
	}
}

func (m menuModel) View(width, height int, active string) string {
	if len(m.rows) == 0 {
		return " " + dimStyle.Render("nothing to show")
	}

	start := 0
	if height > 0 && m.cursor >= height {
		start = m.cursor - height + 1
	}

	var b strings.Builder
	for i := start; i < len(m.rows); i++ {
		if height > 0 && i-start >= height {
			break
		}
		r := m.rows[i]
		indent := strings.Repeat("  ", r.Depth)
		title := truncStr(r.Title, width-4-2*r.Depth)

		var line string
		switch {
		case r.HasChildren():
			line = " " + indent + groupStyle.Render(title)
		case i == m.cursor:
			marker := accentStyle.Render("▸")
			line = selectedRowBg.Render(marker + indent + selectedStyle.Render(padRight(title, width-3-2*r.Depth)))
			line = " " + line
		case r.To == active:
			line = " " + " " + indent + accentStyle.Render(title)
		default:
			line = " " + " " + indent + normalStyle.Render(title)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
