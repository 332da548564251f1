package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Back     key.Binding
	NextItem key.Binding
	PrevItem key.Binding
	Copy     key.Binding
	Browser  key.Binding
	Company  key.Binding
	Refresh  key.Binding
	Logout   key.Binding
	Help     key.Binding
	Quit     key.Binding
	ForceQ   key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "nav")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "nav")),
	Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	NextItem: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
	PrevItem: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
	Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy path")),
	Browser:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open web")),
	Company:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "company")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "verify")),
	Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Help:     key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	ForceQ:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

// helpBar renders bindings as "key label" pairs.
func helpBar(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		h := b.Help()
		if i > 0 {
			out += "  "
		}
		out += helpEntry(h.Key, h.Desc)
	}
	return " " + out
}
