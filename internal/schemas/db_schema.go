// Package schemas defines the data structures
package schemas

import (
	"time"

	"github.com/google/uuid"
)

// User represents the data model for a user in the system.
type User struct {
	ID        *uuid.UUID `json:"id"`         // Unique identifier for the user.
	Username  string     `json:"username"`   // Username of the user.
	Email     string     `json:"email"`      // Email address of the user.
	Password  string     `json:"password"`   // Password hash of the user. Legacy rows may hold plaintext until first login.
	Name      string     `json:"name"`       // Display name of the user.
	Age       string     `json:"age"`        // Age of the user, stored as text.
	Gender    string     `json:"gender"`     // Gender of the user.
	Weight    string     `json:"weight"`     // Weight of the user, stored as text.
	Height    string     `json:"height"`     // Height of the user, stored as text.
	CreatedAt *time.Time `json:"created_at"` // Timestamp when the user was created.
}

// ResetToken represents a single-use password reset token associated with a user.
type ResetToken struct {
	ID        *uuid.UUID `json:"id"`         // Unique identifier for the token row.
	UserID    *uuid.UUID `json:"user_id"`    // Identifier of the user this token belongs to.
	Token     string     `json:"token"`      // Opaque token string, the lookup key.
	ExpiresAt *time.Time `json:"expires_at"` // Timestamp when the token expires.
}
