package service

import (
	"context"
	"testing"
	"time"

	"tasklist/internal/auth"
	dom "tasklist/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeUserRepo struct {
	users  []dom.User
	nextID int64
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (dom.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *fakeUserRepo) Create(_ context.Context, u dom.User) (dom.User, error) {
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return dom.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	r.users = append(r.users, u)
	return u, nil
}

func newUserService() (*UserService, *fakeUserRepo, *auth.Tokens) {
	repo := &fakeUserRepo{}
	tokens := auth.NewTokens("test-secret", time.Hour)
	return NewUserService(repo, tokens), repo, tokens
}

func TestRegisterIssuesToken(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newUserService()

	user, token, err := svc.Register(ctx, "  Alice  ", "long-enough-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("username must be normalized, got %q", user.Username)
	}
	if user.PasswordHash == "long-enough-pass" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	userID, _, _, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("returned token must verify: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("token is for user %d, want %d", userID, user.ID)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, repo, _ := newUserService()
	if _, _, err := svc.Register(context.Background(), "alice", "short"); err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("nothing should have been stored")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService()

	if _, _, err := svc.Register(ctx, "alice", "long-enough-pass"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// Same name modulo case and whitespace.
	if _, _, err := svc.Register(ctx, " ALICE ", "another-long-pass"); err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newUserService()

	registered, _, err := svc.Register(ctx, "alice", "long-enough-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, token, err := svc.Login(ctx, "ALICE", "long-enough-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("login returned user %d, want %d", user.ID, registered.ID)
	}
	if userID, _, _, err := tokens.Verify(token); err != nil || userID != registered.ID {
		t.Fatalf("login token must verify to the user: id=%d err=%v", userID, err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService()

	if _, _, err := svc.Register(ctx, "alice", "long-enough-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice", "wrong-password"); err != ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "long-enough-pass"); err != ErrInvalidCredentials {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "", ""); err != ErrInvalidCredentials {
		t.Fatalf("blank credentials: expected ErrInvalidCredentials, got %v", err)
	}
}
