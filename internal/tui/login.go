package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/backoffice/internal/session"
	"github.com/naveenspark/backoffice/pkg/domain"
)

const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

// loginDoneMsg carries the result of a LogIn call.
type loginDoneMsg struct {
	err error
}

type loginModel struct {
	session  *session.Store
	email    string
	password string
	focus    int
	err      string
	busy     bool
	frame    int
}

func newLoginModel(s *session.Store, email string) loginModel {
	m := loginModel{session: s, email: email}
	if email != "" {
		m.focus = fieldPassword
	}
	return m
}

func (m loginModel) submit() tea.Cmd {
	s := m.session
	creds := domain.Credentials{Email: strings.TrimSpace(m.email), Password: m.password}
	return func() tea.Msg {
		_, err := s.LogIn(context.Background(), creds)
		return loginDoneMsg{err: err}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = errorText(msg.err)
			m.password = ""
			m.focus = fieldPassword
		} else {
			m.err = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.NextItem):
			m.focus = (m.focus + 1) % fieldCount
			return m, nil
		case key.Matches(msg, keys.PrevItem):
			m.focus = (m.focus + fieldCount - 1) % fieldCount
			return m, nil
		case key.Matches(msg, keys.Open):
			if m.focus == fieldEmail && m.password == "" {
				m.focus = fieldPassword
				return m, nil
			}
			if strings.TrimSpace(m.email) == "" || m.password == "" {
				m.err = "email and password are required"
				return m, nil
			}
			m.err = ""
			m.busy = true
			return m, m.submit()
		}

		m.err = ""
		if m.focus == fieldEmail {
			m.email = editField(m.email, msg)
		} else {
			m.password = editField(m.password, msg)
		}
	}
	return m, nil
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n " + selectedStyle.Render("Sign in") + "\n\n")
	b.WriteString(renderField("email   ", m.email, "you@example.com", false, m.focus == fieldEmail && !m.busy, m.frame) + "\n")
	b.WriteString(renderField("password", m.password, "", true, m.focus == fieldPassword && !m.busy, m.frame) + "\n\n")
	switch {
	case m.busy:
		b.WriteString(" " + dimStyle.Render("signing in...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}
