package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/logger"
	"github.com/jengzang/salesmap-backend-go/internal/middleware"
	"github.com/jengzang/salesmap-backend-go/internal/session"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// Authenticator checks stored user accounts
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (auth.Principal, error)
}

// AuthHandler handles login and logout
type AuthHandler struct {
	creds  auth.Credentials
	users  Authenticator
	tokens *auth.TokenManager
	store  *session.Store
}

// NewAuthHandler creates a new auth handler; users may be nil
func NewAuthHandler(creds auth.Credentials, users Authenticator, tokens *auth.TokenManager, store *session.Store) *AuthHandler {
	return &AuthHandler{creds: creds, users: users, tokens: tokens, store: store}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	States    []string  `json:"states"` // Empty means every state
}

// authenticate tries the configured admin, then stored users
func (h *AuthHandler) authenticate(ctx context.Context, login, password string) (auth.Principal, error) {
	if err := h.creds.Check(login, password); err == nil {
		return auth.Principal{Username: login, Role: auth.RoleAdmin}, nil
	}
	if h.users == nil {
		return auth.Principal{}, auth.ErrInvalidCredentials
	}
	return h.users.Authenticate(ctx, login, password)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		logger.Log.WithField("user", req.Username).Warn("login rejected")
		response.Unauthorized(c, "Invalid username or password")
		return
	}
	if err != nil {
		response.InternalError(c, "Login failed", err)
		return
	}

	sess := h.store.CreateFor(p)
	token, expires, err := h.tokens.Issue(sess.ID, p.Username)
	if err != nil {
		_ = h.store.Delete(sess.ID)
		response.InternalError(c, "Failed to issue token", err)
		return
	}

	states := p.States
	if states == nil {
		states = []string{}
	}
	response.Success(c, loginResponse{
		Token:     token,
		ExpiresAt: expires,
		SessionID: sess.ID,
		Role:      p.Role,
		States:    states,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		response.Unauthorized(c, "No active session")
		return
	}
	if err := h.store.Delete(sess.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		response.InternalError(c, "Failed to end session", err)
		return
	}
	response.Success(c, gin.H{"logged_out": true})
}
