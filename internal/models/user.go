// ABOUTME: User account model and the ValidationError type.
// ABOUTME: Users own medical records; passwords are stored only as hashes.
package models

import (
	"fmt"
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// User is an account that owns medical records.
type User struct {
	ID           int64     `json:"id" yaml:"id"`
	Username     string    `json:"username" yaml:"username"`
	PasswordHash string    `json:"password_hash" yaml:"password_hash"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// NewUser creates an unsaved user with the current timestamp.
func NewUser(username, passwordHash string) *User {
	return &User{
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// ValidateCredentials checks registration input.
func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return &ValidationError{Field: "username", Message: "Username and password required"}
	}
	if len(password) < MinPasswordLength {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength),
		}
	}
	return nil
}

// ValidationError reports a missing or invalid required field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
