// Package auth implements sign-in for Linguava: password accounts, emailed
// magic links and Google OAuth, all funneling into the shared session
// manager.
package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can sign in and own dashboard data.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity links a user to an external OAuth provider account.
type Identity struct {
	UserID         uuid.UUID `json:"user_id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}
