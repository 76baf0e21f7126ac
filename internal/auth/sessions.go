// Package auth issues, validates and revokes opaque session tokens for the
// single configured user.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/model"
)

// Session errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrSessionNotFound    = errors.New("session not found")
)

// tokenBytes is the number of random bytes in a session token.
const tokenBytes = 16

// maxPasswordLen is the longest password bcrypt compares without truncation.
const maxPasswordLen = 72

// Sessions maps live session tokens to the username that logged in.
type Sessions struct {
	username     string
	passwordHash []byte

	mu       sync.Mutex
	sessions map[string]string

	// newToken is swapped in tests to force collisions.
	newToken func() (string, error)
}

// NewSessions returns a session manager accepting only cred.
func NewSessions(cred model.Credential) (*Sessions, error) {
	if err := cred.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credential: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return &Sessions{
		username:     cred.Username,
		passwordHash: hash,
		sessions:     make(map[string]string),
		newToken:     generateToken,
	}, nil
}

// Authenticate checks the credentials and starts a new session, returning
// its token. Each call yields a distinct token.
func (s *Sessions) Authenticate(username, password string) (string, error) {
	// Both halves are always checked so the failure says nothing about
	// which one was wrong.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := len(password) <= maxPasswordLen &&
		bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		token, err := s.newToken()
		if err != nil {
			return "", fmt.Errorf("generating session token: %w", err)
		}
		if _, taken := s.sessions[token]; taken {
			continue
		}
		s.sessions[token] = username
		return token, nil
	}
}

// Validate returns the identity behind a live token.
func (s *Sessions) Validate(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.sessions[token]
	if !ok {
		return "", ErrUnauthenticated
	}
	return username, nil
}

// Revoke ends the session for token. The token must still be valid; if it
// disappears between validation and removal, ErrSessionNotFound is returned.
func (s *Sessions) Revoke(token string) error {
	if _, err := s.Validate(token); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, token)
	return nil
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// generateToken creates a random hex-encoded session token.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
