package tui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/naveenspark/backoffice/internal/session"
	"github.com/naveenspark/backoffice/pkg/client"
)

func TestTruncStr(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"under limit", "hello", 10, "hello"},
		{"at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hell…"},
		{"empty string", "", 5, ""},
		{"single char over", "ab", 1, "…"},
		{"zero width", "ab", 0, ""},
		{"CJK chars", "你好世界", 3, "你好…"},
		{"multi-byte at boundary", "cafés are nice", 5, "café…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncStr(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncStr(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Errorf("padRight over width = %q", got)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "expired"},
		{30 * time.Second, "expires in <1m"},
		{45 * time.Minute, "expires in 45m"},
		{5 * time.Hour, "expires in 5h"},
		{72 * time.Hour, "expires in 3d"},
	}
	for _, tt := range tests {
		if got := formatRemaining(tt.d); got != tt.want {
			t.Errorf("formatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestErrorText(t *testing.T) {
	verify := func(err error) error {
		return fmt.Errorf("session.LogIn: %w", fmt.Errorf("%w: %w", session.ErrVerificationFailed, err))
	}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"bad credentials", &client.HTTPError{StatusCode: 401}, "invalid email or password"},
		{"field error", &client.HTTPError{StatusCode: 422, Errors: map[string][]string{
			"password": {"The password field is required."},
			"email":    {"The email must be a valid email address."},
		}}, "The email must be a valid email address."},
		{"message only", &client.HTTPError{StatusCode: 422, Message: "Invalid credentials"}, "Invalid credentials"},
		{"network", &client.NetworkError{Err: errors.New("dial tcp")}, "cannot reach the server"},
		{"server", &client.HTTPError{StatusCode: 502}, "server error, try again later"},
		{"no token", fmt.Errorf("session.LogIn: %w", session.ErrNoToken), "the server did not return a token"},
		{"verification rejected", verify(&client.HTTPError{StatusCode: 401}), "session could not be verified: token rejected"},
		{"verification unreachable", verify(&client.NetworkError{Err: errors.New("timeout")}), "session could not be verified: cannot reach the server"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorText(tt.err); got != tt.want {
				t.Errorf("errorText = %q, want %q", got, tt.want)
			}
		})
	}
}
