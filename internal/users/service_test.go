package users

import (
	"context"
	"testing"
	"time"

	"insight-backend/internal/shared/apperr"
	"insight-backend/internal/shared/auth"
)

func newTestService() *Service {
	tokens := auth.NewManager("test-secret", time.Hour, 24*time.Hour)
	return NewService(NewMemoryRepo(), tokens)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Alice@Example.com", "supersecret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if user.Role != RoleUser {
		t.Errorf("expected default role %q, got %q", RoleUser, user.Role)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected non-empty token pair")
	}
	if user.PasswordHash == "supersecret" {
		t.Error("password stored in plaintext")
	}

	got, _, err := svc.Login(ctx, "alice@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("login returned user %q, want %q", got.ID, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "supersecret"},
		{"malformed email", "not-an-email", "supersecret"},
		{"short password", "bob@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tc.email, tc.password)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "dup@example.com", "supersecret"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := svc.Register(ctx, "dup@example.com", "othersecret")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error for duplicate email, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "carol@example.com", "supersecret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(ctx, "carol@example.com", "wrongpassword")
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever1")
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "dave@example.com", "supersecret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.AccessToken == "" || next.RefreshToken == "" {
		t.Error("expected non-empty refreshed pair")
	}

	_, err = svc.Refresh(ctx, "not-a-token")
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized for garbage token, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "frank@example.com", "supersecret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// The access token is signed with the same secret and carries the
	// same subject, but only refresh tokens may mint new pairs.
	_, err = svc.Refresh(ctx, pair.AccessToken)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized for access token, got %v", err)
	}
}

func TestExists(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "erin@example.com", "supersecret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ok, err := svc.Exists(ctx, user.ID)
	if err != nil || !ok {
		t.Errorf("expected user to exist, got ok=%v err=%v", ok, err)
	}

	ok, err = svc.Exists(ctx, "missing-id")
	if err != nil || ok {
		t.Errorf("expected missing user, got ok=%v err=%v", ok, err)
	}
}
