package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User captures application-facing fields for an authenticated identity.
// The password hash is never serialized.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
