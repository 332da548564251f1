package browser

import "testing"

func TestConsoleURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://console.example.com", "/users", "https://console.example.com/users"},
		{"https://console.example.com/", "/users", "https://console.example.com/users"},
		{"https://console.example.com/", "users", "https://console.example.com/users"},
		{"https://console.example.com", "/", "https://console.example.com/"},
		{"https://console.example.com", "", "https://console.example.com/"},
		{"http://localhost:5173/admin", "/schools/edit/4", "http://localhost:5173/admin/schools/edit/4"},
	}
	for _, tt := range tests {
		if got := ConsoleURL(tt.base, tt.path); got != tt.want {
			t.Errorf("ConsoleURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "::"} {
		if err := Open(u); err == nil {
			t.Errorf("Open(%q) succeeded, want error", u)
		}
	}
}
