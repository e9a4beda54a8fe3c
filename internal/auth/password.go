// Package auth issues and verifies credentials: bcrypt password hashes,
// signed access tokens and single-purpose tokens for email confirmation and
// password reset.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth.HashPassword: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Malformed hashes
// never match.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Hasher adapts the package functions to the service layer's interface.
type Hasher struct{}

func (Hasher) Hash(password string) (string, error) { return HashPassword(password) }
func (Hasher) Check(hash, password string) bool     { return CheckPassword(hash, password) }
