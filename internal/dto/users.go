package dto

import "time"

// CreateUserRequest registers a caller identity so personal credentials and
// usage can attach to it.
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// UserResponse represents user data returned to clients.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ConnectionResponse describes one connected platform without exposing token
// material.
type ConnectionResponse struct {
	Platform  string     `json:"platform"`
	Handle    string     `json:"handle,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UsageRow is one channel's current-window consumption.
type UsageRow struct {
	Channel   string    `json:"channel"`
	Used      int       `json:"used"`
	Ceiling   int       `json:"ceiling"`
	Remaining int       `json:"remaining"`
	Window    string    `json:"window"`
	ResetsAt  time.Time `json:"resets_at"`
}

// UsageResponse reports the user's metered consumption alongside the shared
// pool it falls back to.
type UsageResponse struct {
	UserID string     `json:"user_id"`
	User   []UsageRow `json:"user"`
	Shared []UsageRow `json:"shared"`
}
