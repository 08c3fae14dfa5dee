package users

import "time"

// Roles assignable at registration.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is an account identity. Identity fields are immutable once issued.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
