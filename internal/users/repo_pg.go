package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new user.
func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, password_hash, role, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.DB.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicateEmail
	}
	return err
}

// GetByID returns the user with the given ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (User, error) {
	const query = `
SELECT id, email, password_hash, role, created_at
FROM users
WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the user with the given email.
func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `
SELECT id, email, password_hash, role, created_at
FROM users
WHERE email = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email))
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}
