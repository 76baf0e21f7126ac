package auth

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/erazemk/zaloga/internal/model"
)

func newTestSessions(t *testing.T) *Sessions {
	t.Helper()
	s, err := NewSessions(model.Credential{Username: "admin", Password: "password"})
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}
	return s
}

func TestAuthenticateAndValidate(t *testing.T) {
	s := newTestSessions(t)

	token, err := s.Authenticate("admin", "password")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if len(token) != 2*tokenBytes {
		t.Errorf("expected %d hex chars, got %q", 2*tokenBytes, token)
	}

	user, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if user != "admin" {
		t.Errorf("expected identity 'admin', got %q", user)
	}
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	s := newTestSessions(t)

	tests := []struct {
		username, password string
	}{
		{"admin", "wrong"},
		{"wronguser", "password"},
		{"wronguser", "wrongpassword"},
		{"Admin", "password"},
		{"admin", "Password"},
		{"", ""},
		{"admin", "password" + strings.Repeat("x", 80)},
	}

	for _, tt := range tests {
		token, err := s.Authenticate(tt.username, tt.password)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q, %q): expected ErrInvalidCredentials, got %v", tt.username, tt.password, err)
		}
		if token != "" {
			t.Errorf("Authenticate(%q, %q): expected empty token", tt.username, tt.password)
		}
	}

	if n := s.Count(); n != 0 {
		t.Errorf("expected no sessions after failed logins, got %d", n)
	}
}

func TestMultipleSessions(t *testing.T) {
	s := newTestSessions(t)

	t1, _ := s.Authenticate("admin", "password")
	t2, _ := s.Authenticate("admin", "password")
	if t1 == t2 {
		t.Fatal("expected distinct tokens per login")
	}
	if s.Count() != 2 {
		t.Errorf("expected 2 sessions, got %d", s.Count())
	}

	// Revoking one session leaves the other alive.
	if err := s.Revoke(t1); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := s.Validate(t1); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected revoked token to fail validation, got %v", err)
	}
	if _, err := s.Validate(t2); err != nil {
		t.Errorf("expected second token to stay valid, got %v", err)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	s := newTestSessions(t)

	for _, token := range []string{"", "invalid-token", strings.Repeat("0", 32)} {
		if _, err := s.Validate(token); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("Validate(%q): expected ErrUnauthenticated, got %v", token, err)
		}
	}
}

func TestRevokeNotIdempotent(t *testing.T) {
	s := newTestSessions(t)

	token, _ := s.Authenticate("admin", "password")
	if err := s.Revoke(token); err != nil {
		t.Fatalf("first Revoke: %v", err)
	}

	if err := s.Revoke(token); err == nil {
		t.Error("expected second Revoke to fail")
	}
	if err := s.Revoke("never-issued"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for unknown token, got %v", err)
	}
}

func TestTokenCollisionRetries(t *testing.T) {
	s := newTestSessions(t)

	tokens := []string{"dup", "dup", "fresh"}
	s.newToken = func() (string, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, nil
	}

	first, err := s.Authenticate("admin", "password")
	if err != nil || first != "dup" {
		t.Fatalf("first Authenticate = %q, %v", first, err)
	}
	second, err := s.Authenticate("admin", "password")
	if err != nil {
		t.Fatalf("second Authenticate: %v", err)
	}
	if second != "fresh" {
		t.Errorf("expected collision to be retried, got %q", second)
	}
}

func TestConcurrentLogins(t *testing.T) {
	s := newTestSessions(t)

	const n = 16
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := s.Authenticate("admin", "password")
			if err != nil {
				t.Errorf("Authenticate: %v", err)
				return
			}
			tokens[i] = tok
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, tok := range tokens {
		if seen[tok] {
			t.Errorf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
	if s.Count() != n {
		t.Errorf("expected %d sessions, got %d", n, s.Count())
	}
}

func TestNewSessionsRejectsEmptyCredential(t *testing.T) {
	if _, err := NewSessions(model.Credential{Username: "admin"}); err == nil {
		t.Error("expected error for empty password")
	}
}
