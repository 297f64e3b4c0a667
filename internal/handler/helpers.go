package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/middleware"
	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/session"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// bindFilter parses the shared metric query parameters and applies the
// caller's state scope
func bindFilter(c *gin.Context) (models.MetricFilter, bool) {
	var q models.MetricQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return models.MetricFilter{}, false
	}
	f, err := q.Filter()
	if err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return models.MetricFilter{}, false
	}
	if sess, ok := middleware.CurrentSession(c); ok {
		f.States = sess.AllowedStates
	}
	return f, true
}

// withSession runs fn under the session lock and writes its result
func withSession(c *gin.Context, fn func(*session.Session) (interface{}, error)) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		response.Unauthorized(c, "No active session")
		return
	}

	var out interface{}
	err := sess.Do(func(s *session.Session) error {
		var err error
		out, err = fn(s)
		return err
	})

	var bad badRequest
	switch {
	case err == nil:
		response.Success(c, out)
	case errors.Is(err, session.ErrSessionNotFound):
		response.Unauthorized(c, "Session has ended, please log in again")
	case errors.Is(err, session.ErrChartNotFound):
		response.NotFound(c, "Chart not found")
	case errors.As(err, &bad):
		response.BadRequest(c, bad.msg, bad.err)
	default:
		response.InternalError(c, "Request failed", err)
	}
}

// badRequest marks an error raised by input validation inside a session call
type badRequest struct {
	msg string
	err error
}

func (b badRequest) Error() string {
	if b.err != nil {
		return b.msg + ": " + b.err.Error()
	}
	return b.msg
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
