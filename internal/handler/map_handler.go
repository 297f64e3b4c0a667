package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/internal/session"
	"github.com/jengzang/salesmap-backend-go/internal/viz"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// MapHandler drives the session's map view
type MapHandler struct {
	dashboard *service.DashboardService
}

// NewMapHandler creates a new map handler
func NewMapHandler(dashboard *service.DashboardService) *MapHandler {
	return &MapHandler{dashboard: dashboard}
}

type zoomRequest struct {
	Direction string `json:"direction" binding:"required,oneof=in out reset"`
}

type panRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type fullscreenRequest struct {
	Fullscreen bool `json:"fullscreen"`
}

// hitResponse is a render plus the pin under the pointer, if any
type hitResponse struct {
	Hit    *viz.Pin      `json:"hit"`
	Render viz.MapRender `json:"render"`
}

// GetMap handles GET /api/v1/map
func (h *MapHandler) GetMap(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		return h.dashboard.LoadMap(c.Request.Context(), s, f), nil
	})
}

// Render handles GET /api/v1/map/render
func (h *MapHandler) Render(c *gin.Context) {
	withSession(c, func(s *session.Session) (interface{}, error) {
		return s.Map.Render(), nil
	})
}

// Zoom handles POST /api/v1/map/zoom
func (h *MapHandler) Zoom(c *gin.Context) {
	var req zoomRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		switch req.Direction {
		case "in":
			s.Map.ZoomIn()
		case "out":
			s.Map.ZoomOut()
		default:
			s.Map.ResetCamera()
		}
		return s.Map.Render(), nil
	})
}

// Pan handles POST /api/v1/map/pan
func (h *MapHandler) Pan(c *gin.Context) {
	var req panRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		s.Map.Pan(req.DX, req.DY)
		return s.Map.Render(), nil
	})
}

// Hover handles POST /api/v1/map/hover
func (h *MapHandler) Hover(c *gin.Context) {
	var req pointRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		p, ok := s.Map.HoverAt(req.X, req.Y)
		return hit(p, ok, s.Map.Render()), nil
	})
}

// Click handles POST /api/v1/map/click
func (h *MapHandler) Click(c *gin.Context) {
	var req pointRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		p, ok := s.Map.ClickAt(req.X, req.Y)
		return hit(p, ok, s.Map.Render()), nil
	})
}

// Select handles POST /api/v1/map/select
func (h *MapHandler) Select(c *gin.Context) {
	var req selectRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		if !s.Map.Select(req.ID) {
			return nil, badRequest{msg: fmt.Sprintf("No visible pin %q", req.ID)}
		}
		return s.Map.Render(), nil
	})
}

// Search handles POST /api/v1/map/search
func (h *MapHandler) Search(c *gin.Context) {
	var req searchRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		s.Map.Search(req.Query)
		return s.Map.Render(), nil
	})
}

// Mode handles POST /api/v1/map/mode
func (h *MapHandler) Mode(c *gin.Context) {
	var req modeRequest
	if !bindJSON(c, &req) {
		return
	}
	mode, err := viz.ParseViewMode(req.Mode)
	if err != nil {
		response.BadRequest(c, "Invalid view mode", err)
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		s.Map.SetMode(mode)
		return s.Map.Render(), nil
	})
}

// Fullscreen handles POST /api/v1/map/fullscreen
func (h *MapHandler) Fullscreen(c *gin.Context) {
	var req fullscreenRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		s.Map.SetFullscreen(req.Fullscreen)
		return s.Map.Render(), nil
	})
}

func hit(p viz.Pin, ok bool, r viz.MapRender) hitResponse {
	if !ok {
		return hitResponse{Render: r}
	}
	return hitResponse{Hit: &p, Render: r}
}
