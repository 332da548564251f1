package tui

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/naveenspark/backoffice/internal/session"
	"github.com/naveenspark/backoffice/pkg/client"
)

// formatRemaining renders a token lifetime such as "expires in 3h".
func formatRemaining(d time.Duration) string {
	switch {
	case d <= 0:
		return "expired"
	case d < time.Minute:
		return "expires in <1m"
	case d < time.Hour:
		return fmt.Sprintf("expires in %dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("expires in %dh", int(d.Hours()))
	default:
		return fmt.Sprintf("expires in %dd", int(d.Hours()/24))
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// errorText turns a session or API error into a one-line message.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, session.ErrNoToken) {
		return "the server did not return a token"
	}
	prefix := ""
	if errors.Is(err, session.ErrVerificationFailed) {
		prefix = "session could not be verified: "
	}

	var httpErr *client.HTTPError
	switch client.Classify(err) {
	case client.KindNetwork:
		return prefix + "cannot reach the server"
	case client.KindAuth:
		if prefix != "" {
			return prefix + "token rejected"
		}
		return "invalid email or password"
	case client.KindValidation:
		fields := client.FieldErrors(err)
		keys := slices.Sorted(maps.Keys(fields))
		for _, k := range keys {
			if msgs := fields[k]; len(msgs) > 0 {
				return prefix + msgs[0]
			}
		}
		if errors.As(err, &httpErr) && httpErr.Message != "" {
			return prefix + httpErr.Message
		}
		return prefix + "request rejected"
	case client.KindServer:
		return prefix + "server error, try again later"
	}
	return prefix + err.Error()
}
