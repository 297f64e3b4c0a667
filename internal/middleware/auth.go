package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/session"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// Context keys set by RequireSession
const (
	SessionKey = "session_id"
	sessionObj = "session"
)

// RequireSession resolves the bearer token to a live session
func RequireSession(tokens *auth.TokenManager, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "Missing bearer token")
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			return
		}

		sess, err := store.Get(claims.SessionID)
		if err != nil {
			response.Unauthorized(c, "Session has ended, please log in again")
			return
		}

		c.Set(SessionKey, sess.ID)
		c.Set(sessionObj, sess)
		c.Next()
	}
}

// CurrentSession returns the session attached by RequireSession
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionObj)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

// RequireAdmin rejects sessions without the admin role; it runs after RequireSession
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			response.Unauthorized(c, "No active session")
			return
		}
		if !sess.IsAdmin() {
			response.Forbidden(c, "Admin access required")
			return
		}
		c.Next()
	}
}
