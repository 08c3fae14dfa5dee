package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"insight-backend/internal/shared/apperr"
	"insight-backend/internal/shared/auth"
)

// Service contains account business logic: registration, login, and
// token refresh. Tokens are issued through the shared auth.Manager.
type Service struct {
	Repo   Repo
	Tokens *auth.Manager
}

// NewService constructs a Service.
func NewService(repo Repo, tokens *auth.Manager) *Service {
	return &Service{Repo: repo, Tokens: tokens}
}

// Register creates an account and issues its first token pair.
func (s *Service) Register(ctx context.Context, email, password string) (User, auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, auth.TokenPair{}, apperr.New(apperr.KindValidation, "a valid email is required")
	}
	if len(password) < 8 {
		return User{}, auth.TokenPair{}, apperr.New(apperr.KindValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return User{}, auth.TokenPair{}, apperr.New(apperr.KindValidation, "email already registered")
		}
		return User{}, auth.TokenPair{}, err
	}

	pair, err := s.Tokens.GeneratePair(user.ID, user.Email, user.Role)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	return user, pair, nil
}

// Login verifies credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (User, auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, auth.TokenPair{}, apperr.New(apperr.KindUnauthorized, "invalid credentials")
		}
		return User{}, auth.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, auth.TokenPair{}, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	pair, err := s.Tokens.GeneratePair(user.ID, user.Email, user.Role)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh validates a refresh token and issues a new pair. The subject
// must still resolve to an existing user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.Tokens.Verify(refreshToken)
	if err != nil {
		return auth.TokenPair{}, apperr.New(apperr.KindUnauthorized, "invalid refresh token")
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return auth.TokenPair{}, apperr.New(apperr.KindUnauthorized, "invalid refresh token")
	}

	user, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.TokenPair{}, apperr.New(apperr.KindUnauthorized, "invalid refresh token")
		}
		return auth.TokenPair{}, err
	}

	return s.Tokens.GeneratePair(user.ID, user.Email, user.Role)
}

// GetByID returns the user with the given ID.
func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return User{}, err
	}
	return user, nil
}

// Exists reports whether a user ID resolves; used by the auth middleware.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
