package service

import (
	"context"
	"errors"
	"strings"

	"tasklist/internal/auth"
	dom "tasklist/internal/domain"
	"tasklist/internal/repo"
	"tasklist/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const minPasswordLen = 8

// UserService owns the account lifecycle: registration, credential checks and
// the bearer token handed back on both.
type UserService struct {
	repo   repo.UserRepo
	tokens *auth.Tokens
}

func NewUserService(r repo.UserRepo, tokens *auth.Tokens) *UserService {
	return &UserService{repo: r, tokens: tokens}
}

// Login checks the credentials and returns the user with a fresh bearer token.
func (s *UserService) Login(ctx context.Context, username, password string) (dom.User, string, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return dom.User{}, "", ErrInvalidCredentials
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, "", ErrInvalidCredentials
		}
		return dom.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dom.User{}, "", ErrInvalidCredentials
	}
	return s.withToken(u)
}

// Register creates the account and returns it with a bearer token, so a new
// user is signed in without a second round trip.
func (s *UserService) Register(ctx context.Context, username, password string) (dom.User, string, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return dom.User{}, "", ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return dom.User{}, "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dom.User{}, "", err
	}
	u, err := s.repo.Create(ctx, dom.User{Username: username, PasswordHash: string(hash)})
	if err != nil {
		if utils.IsPGUniqueViolation(err) {
			return dom.User{}, "", ErrUsernameTaken
		}
		return dom.User{}, "", err
	}
	return s.withToken(u)
}

func (s *UserService) withToken(u dom.User) (dom.User, string, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return dom.User{}, "", err
	}
	return u, token, nil
}

// Usernames are stored lowercased so login is case-insensitive.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
