package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/backoffice/internal/config"
	"github.com/naveenspark/backoffice/internal/navigation"
	"github.com/naveenspark/backoffice/pkg/domain"
)

var signedOutGreetings = [...]string{
	"The console is open. You are not inside it.",
	"Every menu entry is hidden until you sign in. All of them.",
	"No token, no tenant, no permissions. A clean slate.",
	"The admin bypass only works for admins who have logged in.",
	"Your session ended. The audit log remembers you fondly.",
	"The menu is waiting to be filtered for you.",
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	roleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844")).
			Bold(true)

	groupStyle = lipgloss.NewStyle().Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#34d474"))

	deniedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))
)

func printSignedOut(w io.Writer) {
	msg := signedOutGreetings[rand.IntN(len(signedOutGreetings))]
	hint := labelStyle.Render("To enter: backoffice login")
	fmt.Fprintf(w, "\n%s\n\n%s\n\n%s\n\n", titleStyle.Render("BACKOFFICE"), quoteStyle.Render(msg), hint)
}

// printIdentity prints who is signed in and for which company.
func printIdentity(w io.Writer, s domain.Session) {
	name, email := "unknown", ""
	if s.User != nil {
		name, email = s.User.Name, s.User.Email
	}
	role := s.RoleName()
	if role == "" {
		role = "no role"
	}

	fmt.Fprintf(w, "Signed in as %s", titleStyle.Render(name))
	if email != "" {
		fmt.Fprintf(w, " <%s>", email)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-8s", "role")), roleStyle.Render(role))
	fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-8s", "company")), companyLabel(s.Company))
	fmt.Fprintf(w, "  %s  %d\n", labelStyle.Render(fmt.Sprintf("%-8s", "perms")), len(s.Permissions))
}

func companyLabel(c *domain.Company) string {
	switch {
	case c == nil:
		return "none"
	case c.Name == "":
		return c.ID.String()
	default:
		return fmt.Sprintf("%s (%s)", c.Name, c.ID)
	}
}

// printMenu prints a navigation tree, children indented under their group.
func printMenu(w io.Writer, items []domain.NavItem) {
	entries := navigation.Flatten(items)
	if len(entries) == 0 {
		fmt.Fprintln(w, labelStyle.Render("(nothing to show)"))
		return
	}
	for _, e := range entries {
		indent := strings.Repeat("  ", e.Depth)
		if e.HasChildren() {
			fmt.Fprintf(w, "%s%s\n", indent, groupStyle.Render(e.Title))
			continue
		}
		fmt.Fprintf(w, "%s%s  %s\n", indent, e.Title, labelStyle.Render(e.To))
	}
}

// printMedia prints a labelled media URL when the profile carries key.
func printMedia(w io.Writer, ui config.UIConfig, label string, profile map[string]json.RawMessage, key string) {
	url := ui.MediaPath(profileString(profile, key))
	if url == "" {
		return
	}
	fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-8s", label)), url)
}

// profileString returns profile[key] when it holds a JSON string.
func profileString(profile map[string]json.RawMessage, key string) string {
	raw, ok := profile[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// printCompanies prints one page of companies, marking the active one.
func printCompanies(w io.Writer, u *domain.User, activeID string, page, size int) error {
	if u == nil || len(u.Companies) == 0 {
		fmt.Fprintln(w, labelStyle.Render("(no companies)"))
		return nil
	}
	rows, pages, err := pageOf(u.Companies, page, size)
	if err != nil {
		return err
	}
	for _, c := range rows {
		marker := "  "
		if c.ID.String() == activeID {
			marker = okStyle.Render("*") + " "
		}
		fmt.Fprintf(w, "%s%-6s %s\n", marker, c.ID, c.Name)
	}
	if pages > 1 {
		fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("page %d/%d", page, pages)))
	}
	return nil
}

// pageOf returns the 1-based page of items and the page count. A size of
// zero puts everything on one page.
func pageOf[T any](items []T, page, size int) ([]T, int, error) {
	if size <= 0 {
		size = max(len(items), 1)
	}
	pages := max((len(items)+size-1)/size, 1)
	if page < 1 || page > pages {
		return nil, pages, fmt.Errorf("page %d out of range 1-%d", page, pages)
	}
	start := (page - 1) * size
	return items[start:min(start+size, len(items))], pages, nil
}

// printRouteResult reports whether navigation reached the requested route.
func printRouteResult(w io.Writer, requested, landed domain.Route) {
	if landed.Name == requested.Name {
		fmt.Fprintf(w, "%s %s (%s)\n", okStyle.Render("allowed"), landed.Path, landed.Name)
		return
	}
	fmt.Fprintf(w, "%s %s -> %s (%s)\n", deniedStyle.Render("redirected"), requested.Path, landed.Path, landed.Name)
}
