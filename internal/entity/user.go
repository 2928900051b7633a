package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a caller identity used to attach personal credentials and usage.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SocialConnection stores an OAuth credential for one platform. Token fields
// hold plaintext in memory; repositories seal them at rest.
type SocialConnection struct {
	UserID       uuid.UUID  `json:"user_id"`
	Platform     Channel    `json:"platform"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Handle       string     `json:"handle,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Usable reports whether the connection can authenticate a call right now.
func (c SocialConnection) Usable(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}
