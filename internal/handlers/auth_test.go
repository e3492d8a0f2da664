package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasklist/internal/auth"
	dom "tasklist/internal/domain"
	"tasklist/internal/dto"
	"tasklist/internal/handlers"
	"tasklist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type memUserRepo struct {
	users  []dom.User
	nextID int64
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (dom.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *memUserRepo) Create(_ context.Context, u dom.User) (dom.User, error) {
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return dom.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.users = append(r.users, u)
	return u, nil
}

type stubRevoker struct {
	revoked []string
}

func (s *stubRevoker) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	s.revoked = append(s.revoked, tokenID)
	return nil
}

type authTestAPI struct {
	router  *gin.Engine
	tokens  *auth.Tokens
	revoker *stubRevoker
}

func newAuthTestAPI(t *testing.T) *authTestAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokens("test-secret", time.Hour)
	revoker := &stubRevoker{}
	users := service.NewUserService(&memUserRepo{}, tokens)
	h := handlers.NewAuthHandler(tokens, revoker, users)

	r := gin.New()
	r.POST("/api/v1/auth/register", h.Register)
	r.POST("/api/v1/auth/login", h.Login)
	r.POST("/api/v1/auth/logout", h.Logout)

	a := &authTestAPI{router: r, tokens: tokens, revoker: revoker}
	return a
}

func TestRegisterThenLogin(t *testing.T) {
	api := newAuthTestAPI(t)
	creds := map[string]string{"username": "alice", "password": "long-enough-pass"}

	helper := &testAPI{router: api.router}
	w := helper.do(t, http.MethodPost, "/api/v1/auth/register", "", creds)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var out dto.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	if out.Token == "" || out.User.Username != "alice" {
		t.Fatalf("unexpected register response: %+v", out)
	}
	if _, _, _, err := api.tokens.Verify(out.Token); err != nil {
		t.Fatalf("register token must verify: %v", err)
	}

	w = helper.do(t, http.MethodPost, "/api/v1/auth/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = helper.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "alice", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	api := newAuthTestAPI(t)
	helper := &testAPI{router: api.router}

	w := helper.do(t, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"username": "alice", "password": "short"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("weak password: expected 400, got %d", w.Code)
	}

	creds := map[string]string{"username": "alice", "password": "long-enough-pass"}
	if w := helper.do(t, http.MethodPost, "/api/v1/auth/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", w.Code)
	}
	if w := helper.do(t, http.MethodPost, "/api/v1/auth/register", "", creds); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", w.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newAuthTestAPI(t)
	helper := &testAPI{router: api.router}

	token, err := api.tokens.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, tokenID, _, err := api.tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	w := helper.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}
	if len(api.revoker.revoked) != 1 || api.revoker.revoked[0] != tokenID {
		t.Fatalf("expected token %q revoked, got %v", tokenID, api.revoker.revoked)
	}
}

func TestLogoutAcceptsLowercaseScheme(t *testing.T) {
	api := newAuthTestAPI(t)

	token, err := api.tokens.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, tokenID, _, err := api.tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}
	// The scheme is matched case-insensitively, same as the middleware.
	if len(api.revoker.revoked) != 1 || api.revoker.revoked[0] != tokenID {
		t.Fatalf("expected token %q revoked, got %v", tokenID, api.revoker.revoked)
	}
}
