package models

import (
	"time"

	"github.com/google/uuid"
)

// UserID is an opaque identifier for a user account.
type UserID string

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID UserID

	// Email is the user's email address (unique). Used for login.
	Email string

	// DisplayName is the name shown to other room members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized in API responses.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last account change.
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           UserID(uuid.New().String()),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
