// Package auth verifies operator credentials for the login screen.
//
// The credential store is a placeholder: it holds a static email to
// password mapping from the configuration file. Passwords may be stored
// as bcrypt hashes so the file does not carry them in clear text.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Provider verifies an email and password pair
type Provider interface {
	Verify(email, password string) bool
}

// bcryptPrefix marks stored values that are bcrypt hashes
const bcryptPrefix = "$2"

// CredentialStore is a static email to password map
type CredentialStore struct {
	entries map[string]string
}

// NewCredentialStore creates a store from email to secret pairs. Emails are
// normalized; secrets are either plain passwords or bcrypt hashes.
func NewCredentialStore(users map[string]string) *CredentialStore {
	entries := make(map[string]string, len(users))
	for email, secret := range users {
		entries[NormalizeEmail(email)] = secret
	}
	return &CredentialStore{entries: entries}
}

// NormalizeEmail trims surrounding space and lower-cases an email
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Verify returns true if the email is known and the password matches exactly
func (s *CredentialStore) Verify(email, password string) bool {
	secret, ok := s.entries[NormalizeEmail(email)]
	if !ok || password == "" {
		return false
	}

	if strings.HasPrefix(secret, bcryptPrefix) {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)) == nil
	}

	// Use constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(secret), []byte(password)) == 1
}

// Len returns the number of known users
func (s *CredentialStore) Len() int {
	return len(s.entries)
}

// HashPassword returns a bcrypt hash suitable for the users section of the config
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
