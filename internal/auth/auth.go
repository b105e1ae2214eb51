// Package auth guards the HTTP surface with a single bcrypt-hashed
// credential pair loaded from configuration.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = bcrypt.DefaultCost

var ErrInvalidCredentials = errors.New("invalid credentials")

// Verifier checks a username/password pair.
type Verifier interface {
	Verify(username, password string) error
}

// StaticCredentials holds one user with a bcrypt password hash.
type StaticCredentials struct {
	Username     string
	PasswordHash string
}

// NewStaticCredentials validates the hash up front so a malformed value
// fails at startup rather than on the first login.
func NewStaticCredentials(username, passwordHash string) (*StaticCredentials, error) {
	if username == "" {
		return nil, errors.New("empty username")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("password hash: %w", err)
	}
	return &StaticCredentials{Username: username, PasswordHash: passwordHash}, nil
}

func (c *StaticCredentials) Verify(username, password string) error {
	// Constant-time on the username; bcrypt handles the password side.
	if subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) != 1 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for CARTEIRA_AUTH_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
