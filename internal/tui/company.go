package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/backoffice/internal/session"
	"github.com/naveenspark/backoffice/pkg/domain"
)

// companySetMsg carries the result of switching company.
type companySetMsg struct {
	company domain.Company
	err     error
}

type companyModel struct {
	session   *session.Store
	companies []domain.Company
	active    domain.ID
	cursor    int
	closed    bool
}

func newCompanyModel(s *session.Store, snap domain.Session) companyModel {
	m := companyModel{session: s}
	if snap.User != nil {
		m.companies = snap.User.Companies
	}
	if snap.Company != nil {
		m.active = snap.Company.ID
		for i, c := range m.companies {
			if c.ID == snap.Company.ID {
				m.cursor = i
			}
		}
	}
	return m
}

func (m companyModel) Update(msg tea.Msg) (companyModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, keys.Back):
		m.closed = true
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.companies)-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Open):
		if m.cursor >= len(m.companies) {
			return m, nil
		}
		c := m.companies[m.cursor]
		s := m.session
		m.closed = true
		return m, func() tea.Msg {
			return companySetMsg{company: c, err: s.SetCompany(context.Background(), c)}
		}
	}
	return m, nil
}

func (m companyModel) View() string {
	var b strings.Builder
	b.WriteString("\n " + selectedStyle.Render("Switch company") + "\n\n")
	if len(m.companies) == 0 {
		b.WriteString(" " + dimStyle.Render("no companies assigned") + "\n")
		return b.String()
	}
	for i, c := range m.companies {
		name := c.Name
		if name == "" {
			name = "company " + c.ID.String()
		}
		label := fmt.Sprintf("%-30s %s", name, metaStyle.Render("#"+c.ID.String()))
		prefix := "   "
		if i == m.cursor {
			prefix = " " + accentStyle.Render("▸") + " "
			label = selectedStyle.Render(fmt.Sprintf("%-30s", name)) + " " + metaStyle.Render("#"+c.ID.String())
		}
		if c.ID == m.active {
			label += " " + okStyle.Render("active")
		}
		b.WriteString(prefix + label + "\n")
	}
	return b.String()
}
