package domain

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned when no user row matches the requested identifier.
var ErrUserNotFound = errors.New("user not found")

// User represents a registered account. Target holds the user's free-text goal
// and stays nil until the first successful update.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Target       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
