package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/middleware"
	"github.com/jengzang/salesmap-backend-go/internal/repository"
	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// AccessHandler serves signup and the admin user management endpoints
type AccessHandler struct {
	access *service.AccessService
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(access *service.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

func accessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, "Invalid request", err)
	case errors.Is(err, repository.ErrDuplicateEmail):
		response.Conflict(c, "An account or pending request with this email already exists")
	case errors.Is(err, repository.ErrAlreadyDecided):
		response.Conflict(c, "Access request was already decided")
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, "Access request not found")
	default:
		response.InternalError(c, "Request failed", err)
	}
}

func adminName(c *gin.Context) string {
	if sess, ok := middleware.CurrentSession(c); ok {
		return sess.Username
	}
	return ""
}

// Signup handles POST /api/v1/auth/signup
func (h *AccessHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.access.Signup(c.Request.Context(), req)
	if err != nil {
		accessError(c, err)
		return
	}
	response.Created(c, gin.H{
		"request": created,
		"message": "Access request submitted. An administrator will review it.",
	})
}

// ListRequests handles GET /api/v1/admin/access-requests
func (h *AccessHandler) ListRequests(c *gin.Context) {
	reqs, err := h.access.ListRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		accessError(c, err)
		return
	}
	response.Success(c, gin.H{"requests": reqs, "count": len(reqs)})
}

// Approve handles POST /api/v1/admin/access-requests/:id/approve
func (h *AccessHandler) Approve(c *gin.Context) {
	u, err := h.access.Approve(c.Request.Context(), c.Param("id"), adminName(c))
	if err != nil {
		accessError(c, err)
		return
	}
	response.Success(c, gin.H{"user": u})
}

// Reject handles POST /api/v1/admin/access-requests/:id/reject
func (h *AccessHandler) Reject(c *gin.Context) {
	if err := h.access.Reject(c.Request.Context(), c.Param("id"), adminName(c)); err != nil {
		accessError(c, err)
		return
	}
	response.Success(c, gin.H{"rejected": true})
}

// ListUsers handles GET /api/v1/admin/users
func (h *AccessHandler) ListUsers(c *gin.Context) {
	users, err := h.access.ListUsers(c.Request.Context())
	if err != nil {
		accessError(c, err)
		return
	}
	response.Success(c, gin.H{"users": users, "count": len(users)})
}

// CreateUser handles POST /api/v1/admin/users
func (h *AccessHandler) CreateUser(c *gin.Context) {
	var req service.NewUser
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.access.CreateUser(c.Request.Context(), req)
	if err != nil {
		accessError(c, err)
		return
	}
	response.Created(c, gin.H{"user": u})
}
