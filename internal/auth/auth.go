// Package auth handles password hashing and credential checks.
package auth

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when a password check fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,}$`)
)

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a stored bcrypt hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ValidUsername reports whether the username is alphanumeric and at least
// three characters long.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidPassword reports whether the password meets the minimum length.
func ValidPassword(password string) bool {
	return len(password) >= 6
}
