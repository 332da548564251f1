package tui

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/naveenspark/backoffice/internal/browser"
	"github.com/naveenspark/backoffice/internal/navigation"
	"github.com/naveenspark/backoffice/internal/router"
	"github.com/naveenspark/backoffice/internal/session"
	"github.com/naveenspark/backoffice/internal/token"
	"github.com/naveenspark/backoffice/pkg/domain"
)

type view int

const (
	viewLoading view = iota
	viewLogin
	viewConsole
	viewCompany
)

const menuWidth = 30

// Checker answers permission checks for the page panel.
type Checker interface {
	Can(permission string) bool
}

// Deps is everything the console drives.
type Deps struct {
	Session     *session.Store
	Router      *router.Router
	Menu        *navigation.Menu
	Permissions Checker
	Logger      *zap.Logger
	WebURL      string
	LoginPath   string
	LandingPath string
	Version     string
}

// navigatedMsg carries the result of a router Push.
type navigatedMsg struct {
	route domain.Route
	err   error
}

// sessionMsg is pushed whenever the session store changes.
type sessionMsg struct {
	session domain.Session
}

type verifyDoneMsg struct{ err error }

type logoutDoneMsg struct{}

type copyResultMsg struct{ err error }

// App is the root Bubbletea model.
type App struct {
	deps        Deps
	view        view
	login       loginModel
	menu        menuModel
	company     companyModel
	spinner     spinner.Model
	route       domain.Route
	session     domain.Session
	busy        string
	status      string
	helpOpen    bool
	helpCursor  int
	updates     chan domain.Session
	unsubscribe func()
	width       int
	height      int
	frame       int
}

// NewApp creates the console. Call Close when the program exits.
func NewApp(d Deps) App {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	d.Logger = d.Logger.Named("tui")

	updates := make(chan domain.Session, 16)
	// When the buffer is full the oldest pending update is dropped, so the
	// latest session always gets through.
	unsubscribe := d.Session.Subscribe(func(s domain.Session) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})

	snap := d.Session.Snapshot()
	email := ""
	if snap.User != nil {
		email = snap.User.Email
	}
	return App{
		deps:        d,
		view:        viewLoading,
		login:       newLoginModel(d.Session, email),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		session:     snap,
		busy:        "verifying session",
		updates:     updates,
		unsubscribe: unsubscribe,
	}
}

// Close detaches the console from the session store.
func (a App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.spinner.Tick, a.navigate(a.deps.LandingPath), waitForSession(a.updates))
}

func waitForSession(ch <-chan domain.Session) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg{session: <-ch}
	}
}

func (a App) navigate(path string) tea.Cmd {
	r := a.deps.Router
	return func() tea.Msg {
		route, err := r.Push(context.Background(), path)
		return navigatedMsg{route: route, err: err}
	}
}

func (a App) verify() tea.Cmd {
	s := a.deps.Session
	return func() tea.Msg {
		return verifyDoneMsg{err: s.Attempt(context.Background(), "")}
	}
}

func (a App) logout() tea.Cmd {
	s := a.deps.Session
	return func() tea.Msg {
		s.LogOut(context.Background())
		return logoutDoneMsg{}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.login.frame = a.frame
		return a, shimmerTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sessionMsg:
		a.session = msg.session
		if !msg.session.Authenticated() && (a.view == viewConsole || a.view == viewCompany) {
			a.toLogin()
		}
		return a, waitForSession(a.updates)

	case navigatedMsg:
		a.busy = ""
		if msg.err != nil {
			a.deps.Logger.Warn("navigation failed", zap.Error(msg.err))
			a.status = "navigation failed: " + msg.err.Error()
			if a.view == viewLoading {
				a.toLogin()
			}
			return a, nil
		}
		a.route = msg.route
		a.session = a.deps.Session.Snapshot()
		if msg.route.Path == a.deps.LoginPath {
			a.toLogin()
			return a, nil
		}
		a.view = viewConsole
		a.menu = newMenuModel(a.deps.Menu.Items())
		a.menu.focus(activeLink(msg.route))
		return a, nil

	case loginDoneMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err != nil {
			return a, cmd
		}
		a.busy = "loading console"
		a.status = ""
		return a, a.navigate(a.deps.LandingPath)

	case verifyDoneMsg:
		a.busy = ""
		if msg.err != nil {
			a.status = errorText(msg.err)
			return a, a.navigate(a.route.Path)
		}
		a.session = a.deps.Session.Snapshot()
		a.menu = newMenuModel(a.deps.Menu.Items())
		a.menu.focus(activeLink(a.route))
		a.status = "session verified"
		return a, nil

	case logoutDoneMsg:
		a.status = "logged out"
		return a, a.navigate(a.deps.LandingPath)

	case companySetMsg:
		if msg.err != nil {
			a.status = "company switch failed: " + msg.err.Error()
		} else {
			a.status = "switched to " + companyLabel(&msg.company)
			a.session = a.deps.Session.Snapshot()
		}
		a.view = viewConsole
		return a, nil

	case copyResultMsg:
		if msg.err != nil {
			a.status = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			a.status = "copied!"
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQ) {
		return a, tea.Quit
	}

	// Help overlay captures all keys when open
	if a.helpOpen {
		switch {
		case key.Matches(msg, keys.Help), key.Matches(msg, keys.Back):
			a.helpOpen = false
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Down):
			if a.helpCursor < len(helpItems)-1 {
				a.helpCursor++
			}
		case key.Matches(msg, keys.Up):
			if a.helpCursor > 0 {
				a.helpCursor--
			}
		case key.Matches(msg, keys.Open):
			item := helpItems[a.helpCursor]
			browser.Open(browser.ConsoleURL(a.deps.WebURL, item.path)) //nolint:errcheck // best-effort browser open
		}
		return a, nil
	}

	switch a.view {
	case viewLoading:
		if key.Matches(msg, keys.Quit) {
			return a, tea.Quit
		}
		return a, nil

	case viewLogin:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd

	case viewCompany:
		var cmd tea.Cmd
		a.company, cmd = a.company.Update(msg)
		if a.company.closed && cmd == nil {
			a.view = viewConsole
		}
		return a, cmd
	}

	a.status = ""
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Help):
		a.helpOpen = true
		a.helpCursor = 0
	case key.Matches(msg, keys.Up):
		a.menu.move(-1)
	case key.Matches(msg, keys.Down):
		a.menu.move(1)
	case key.Matches(msg, keys.Open):
		item, ok := a.menu.selected()
		if !ok {
			return a, nil
		}
		path, err := a.deps.Router.PathFor(item.To, nil)
		if err != nil {
			a.status = err.Error()
			return a, nil
		}
		return a, a.navigate(path)
	case key.Matches(msg, keys.Copy):
		path := a.route.Path
		return a, func() tea.Msg {
			return copyResultMsg{err: clipboard.WriteAll(path)}
		}
	case key.Matches(msg, keys.Browser):
		if err := browser.Open(browser.ConsoleURL(a.deps.WebURL, a.route.Path)); err != nil {
			a.status = "open failed: " + err.Error()
		}
	case key.Matches(msg, keys.Company):
		a.company = newCompanyModel(a.deps.Session, a.session)
		a.view = viewCompany
	case key.Matches(msg, keys.Refresh):
		a.busy = "verifying session"
		return a, a.verify()
	case key.Matches(msg, keys.Logout):
		return a, a.logout()
	}
	return a, nil
}

func (a *App) toLogin() {
	a.view = viewLogin
	email := a.login.email
	a.login = newLoginModel(a.deps.Session, email)
	a.login.frame = a.frame
	a.menu = menuModel{}
}

// activeLink is the menu entry a route highlights.
func activeLink(r domain.Route) string {
	if r.Meta.NavActiveLink != "" {
		return r.Meta.NavActiveLink
	}
	return r.Name
}

func companyLabel(c *domain.Company) string {
	if c == nil {
		return "no company"
	}
	if c.Name != "" {
		return c.Name
	}
	return "company " + c.ID.String()
}

func (a App) View() string {
	title := renderTitle(a.frame)
	header := centered(title, a.width) + "\n" + centered(a.identityLine(), a.width)

	var body, help string
	switch a.view {
	case viewLoading:
		body = "\n " + a.spinner.View() + " " + dimStyle.Render(a.busy+"...")
		help = helpBar(keys.Quit)
	case viewLogin:
		body = a.login.View()
		help = helpBar(keys.NextItem, keys.Open, keys.ForceQ)
	case viewCompany:
		body = a.company.View()
		help = helpBar(keys.Down, keys.Open, keys.Back)
	case viewConsole:
		bodyHeight := a.height - 4
		side := a.menu.View(menuWidth, bodyHeight, activeLink(a.route))
		side = lipgloss.NewStyle().Width(menuWidth).Render(strings.TrimRight(side, "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, side, a.pageView())
		help = helpBar(keys.Down, keys.Open, keys.Copy, keys.Browser, keys.Company, keys.Refresh, keys.Logout, keys.Help, keys.Quit)
	}

	if a.helpOpen {
		body = helpView(a.helpCursor, a.deps.WebURL)
		help = helpBar(keys.Down, keys.Open, keys.Back)
	}

	statusLine := ""
	switch {
	case a.busy != "" && a.view != viewLoading:
		statusLine = " " + a.spinner.View() + " " + dimStyle.Render(a.busy+"...")
	case a.status != "":
		statusLine = " " + dimStyle.Render(a.status)
	}

	// Chrome: header(2) + status(1) + help(1)
	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	if a.height > chrome {
		if pad := a.height - chrome - strings.Count(body, "\n") - 1; pad > 0 {
			body += strings.Repeat("\n", pad)
		}
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, body, statusLine, help)
}

// identityLine shows who is signed in, where, and for how long.
func (a App) identityLine() string {
	s := a.session
	state := a.deps.Session.State().String()
	if !s.Authenticated() || s.User == nil {
		return stateStyle(state).Render(state)
	}

	parts := []string{}
	name := s.User.Name
	if name == "" {
		name = s.User.Email
	}
	if name != "" {
		parts = append(parts, normalStyle.Render(name))
	}
	if role := s.RoleName(); role != "" {
		parts = append(parts, roleStyle.Render(role))
	}
	parts = append(parts, dimStyle.Render(companyLabel(s.Company)))
	parts = append(parts, stateStyle(state).Render(state))
	if info, err := token.Inspect(s.Token); err == nil && !info.ExpiresAt.IsZero() {
		parts = append(parts, metaStyle.Render(formatRemaining(info.Remaining(time.Now()))))
	}
	return strings.Join(parts, metaStyle.Render(" · "))
}

// pageView describes the current route and why the session may see it.
func (a App) pageView() string {
	r := a.route
	title := r.Meta.Title
	if title == "" {
		title = r.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", selectedStyle.Render(title))
	fmt.Fprintf(&b, "%s %s\n", metaStyle.Render("path      "), accentStyle.Render(r.Path))
	fmt.Fprintf(&b, "%s %s\n", metaStyle.Render("route     "), normalStyle.Render(r.Name))
	for _, k := range slices.Sorted(maps.Keys(r.Params)) {
		fmt.Fprintf(&b, "%s %s\n", metaStyle.Render(padRight(":"+k, 10)), normalStyle.Render(r.Params[k]))
	}
	if role := a.deps.Menu.RequiredRole(r.Name); role != "" {
		fmt.Fprintf(&b, "%s %s\n", metaStyle.Render("role      "), roleStyle.Render(role))
	}
	if p := r.Meta.Permission; p != "" {
		mark := okStyle.Render("granted")
		if !a.deps.Permissions.Can(p) {
			mark = errorStyle.Render("denied")
		}
		fmt.Fprintf(&b, "%s %s %s\n", metaStyle.Render("permission"), normalStyle.Render(p), mark)
	}
	if r.Meta.Public {
		fmt.Fprintf(&b, "%s %s\n", metaStyle.Render("access    "), dimStyle.Render("public"))
	}
	fmt.Fprintf(&b, "\n%s %s\n", metaStyle.Render("web       "), dimStyle.Render(browser.ConsoleURL(a.deps.WebURL, r.Path)))
	fmt.Fprintf(&b, "%s %d\n", metaStyle.Render("perms held"), len(a.session.Permissions))

	width := a.width - menuWidth - 2
	if width < 20 {
		width = 20
	}
	return panelStyle.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func centered(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
