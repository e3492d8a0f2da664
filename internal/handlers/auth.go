package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tasklist/internal/auth"
	"tasklist/internal/dto"
	"tasklist/internal/service"

	"github.com/gin-gonic/gin"
)

// tokenRevoker invalidates an issued token by its token ID.
// Satisfied by *auth.RevocationStore.
type tokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// AuthHandler handles register, login and logout.
type AuthHandler struct {
	tokens  *auth.Tokens
	revoked tokenRevoker
	users   *service.UserService
}

func NewAuthHandler(tokens *auth.Tokens, revoked tokenRevoker, users *service.UserService) *AuthHandler {
	return &AuthHandler{tokens: tokens, revoked: revoked, users: users}
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.TokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{
		Token: token,
		User:  dto.UserResponse{ID: user.ID, Username: user.Username},
	})
}

// Register godoc
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Credentials"
// @Success      201   {object}  dto.TokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, token, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		case errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, dto.TokenResponse{
		Token: token,
		User:  dto.UserResponse{ID: user.ID, Username: user.Username},
	})
}

// Logout godoc
// @Summary      Logout (revoke the presented token)
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if raw := auth.BearerToken(c.GetHeader("Authorization")); raw != "" {
		if _, tokenID, expiresAt, err := h.tokens.Verify(raw); err == nil {
			_ = h.revoked.Revoke(c.Request.Context(), tokenID, expiresAt)
		}
	}
	c.Status(http.StatusNoContent)
}
