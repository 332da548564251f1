package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 256

// editField applies a key press to a form value. Typed and pasted runes are
// appended up to maxInputLen; backspace drops the last rune. Other keys
// leave the value unchanged.
func editField(value string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		runes := []rune(value)
		if len(runes) == 0 {
			return value
		}
		return string(runes[:len(runes)-1])
	case tea.KeySpace:
		return appendRunes(value, []rune{' '})
	case tea.KeyRunes:
		return appendRunes(value, msg.Runes)
	}
	return value
}

func appendRunes(value string, add []rune) string {
	room := maxInputLen - utf8.RuneCountInString(value)
	var b strings.Builder
	b.WriteString(value)
	for _, r := range add {
		if room <= 0 {
			break
		}
		if !unicode.IsPrint(r) {
			continue
		}
		b.WriteRune(r)
		room--
	}
	return b.String()
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderField renders a labelled form input with a cursor when focused.
// Secret values are shown as bullets.
func renderField(label, value, placeholder string, secret, focused bool, frame int) string {
	shown := value
	if secret {
		shown = strings.Repeat("•", utf8.RuneCountInString(value))
	}
	prefix := "  "
	labelText := dimStyle.Render(label)
	if focused {
		prefix = inputPromptStyle.Render("> ")
		labelText = selectedStyle.Render(label)
	}

	body := normalStyle.Render(shown)
	if value == "" {
		body = inputPlaceholderStyle.Render(placeholder)
	}
	if focused && (frame/4)%2 == 0 {
		if value == "" {
			body = accentStyle.Render("█")
		} else {
			body += accentStyle.Render("█")
		}
	}
	return " " + prefix + labelText + "  " + body
}
