package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a user does not resolve.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when registering an email that exists.
var ErrDuplicateEmail = errors.New("email already registered")

// Repo defines persistence operations for users.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}
