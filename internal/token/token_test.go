package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	iat := exp.Add(-2 * time.Hour)
	raw := sign(t, jwt.RegisteredClaims{
		Subject:   "42",
		Issuer:    "admin-api",
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	info, err := Inspect("Bearer " + raw)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if info.Subject != "42" || info.Issuer != "admin-api" {
		t.Errorf("Subject/Issuer = %q/%q", info.Subject, info.Issuer)
	}
	if !info.ExpiresAt.Equal(exp) || !info.IssuedAt.Equal(iat) {
		t.Errorf("ExpiresAt/IssuedAt = %v/%v, want %v/%v", info.ExpiresAt, info.IssuedAt, exp, iat)
	}
	now := time.Now()
	if info.Expired(now) {
		t.Error("fresh token reported expired")
	}
	if got := info.Remaining(now); got <= 59*time.Minute {
		t.Errorf("Remaining = %v, want > 59m", got)
	}
}

func TestInspectExpiredIsNotAnError(t *testing.T) {
	raw := sign(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})

	info, err := Inspect(raw)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if !info.Expired(time.Now()) {
		t.Error("expired token not reported expired")
	}
	if got := info.Remaining(time.Now()); got != 0 {
		t.Errorf("Remaining = %v, want 0", got)
	}
}

func TestInspectNoExpiry(t *testing.T) {
	info, err := Inspect(sign(t, jwt.RegisteredClaims{Subject: "1"}))
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if info.Expired(time.Now()) || info.Remaining(time.Now()) != 0 {
		t.Errorf("token without exp: Expired=%v Remaining=%v", info.Expired(time.Now()), info.Remaining(time.Now()))
	}
}

func TestInspectOpaque(t *testing.T) {
	for _, raw := range []string{"", "12|0123456789abcdef", "a.b"} {
		if _, err := Inspect(raw); !errors.Is(err, ErrOpaque) {
			t.Errorf("Inspect(%q) err = %v, want ErrOpaque", raw, err)
		}
	}
}

func TestInspectMalformed(t *testing.T) {
	_, err := Inspect("not.a.jwt")
	if err == nil {
		t.Fatal("expected error for malformed token")
	}
	if errors.Is(err, ErrOpaque) {
		t.Errorf("malformed token reported opaque: %v", err)
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"abcd", "****"},
		{"12|abcdefghijklmnopqrstuvwxyz", "12|abc…wxyz"},
		{"ééééé", "*****"},
		{"tökén-ünïcödé-wërt", "tökén-…wërt"},
		{"abcde😀fghijklmn😀xyz", "abcde😀…😀xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Mask(tt.raw); got != tt.want {
				t.Errorf("Mask(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
