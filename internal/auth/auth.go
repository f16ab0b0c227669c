// Package auth guards the server with a single shared credential.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNoAuth is returned for commands sent before a successful AUTH.
	ErrNoAuth = errors.New("authentication required")
	// ErrWrongPass is returned when the credential does not match.
	ErrWrongPass = errors.New("invalid password")
	// ErrNotConfigured is returned by AUTH when the server is open.
	ErrNotConfigured = errors.New("AUTH called without any password configured")
)

// Authenticator holds the bcrypt hash of the shared password. The zero
// value, like one built from an empty password, lets everybody in.
type Authenticator struct {
	hash []byte
}

// New hashes password with the given bcrypt cost. Costs below bcrypt's
// minimum fall back to its default.
func New(password string, cost int) (*Authenticator, error) {
	if password == "" {
		return &Authenticator{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &Authenticator{hash: hash}, nil
}

// Required reports whether clients must authenticate.
func (a *Authenticator) Required() bool {
	return a != nil && len(a.hash) > 0
}

// Check verifies password against the shared credential.
func (a *Authenticator) Check(password string) error {
	if !a.Required() {
		return ErrNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return ErrWrongPass
	}
	return nil
}
