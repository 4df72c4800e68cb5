package models

import "time"

// UserRegistered is announced after a registration commits.
// Consumers must dedupe by ID; delivery is at least once.
type UserRegistered struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewUserRegistered builds the event for a freshly created user.
func NewUserRegistered(u *User) UserRegistered {
	return UserRegistered{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}
