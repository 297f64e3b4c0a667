package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/internal/session"
	"github.com/jengzang/salesmap-backend-go/internal/viz"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// ChartHandler drives the drill-down chart and chart modals
type ChartHandler struct {
	dashboard *service.DashboardService
}

// NewChartHandler creates a new chart handler
func NewChartHandler(dashboard *service.DashboardService) *ChartHandler {
	return &ChartHandler{dashboard: dashboard}
}

type drillRequest struct {
	Name string `json:"name" binding:"required"`
}

type interactiveRequest struct {
	Interactive bool `json:"interactive"`
}

type selectionRequest struct {
	Action string `json:"action" binding:"required,oneof=toggle select_all deselect_all"`
	Name   string `json:"name"`
}

type selectionResponse struct {
	Chart    string              `json:"chart"`
	Items    []viz.SelectionItem `json:"items"`
	Selected int                 `json:"selected"`
	Total    int                 `json:"total"`
	Changed  bool                `json:"changed"`
}

// GetDealers handles GET /api/v1/charts/dealers
func (h *ChartHandler) GetDealers(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		return h.dashboard.LoadDealerChart(c.Request.Context(), s, f), nil
	})
}

// Drill handles POST /api/v1/charts/dealers/drill. Clicks that the chart
// ignores (compact mode, unknown dealer) return the unchanged series.
func (h *ChartHandler) Drill(c *gin.Context) {
	var req drillRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		s.Dealers.Click(req.Name)
		return s.DealerSeries(), nil
	})
}

// Back handles POST /api/v1/charts/dealers/back
func (h *ChartHandler) Back(c *gin.Context) {
	withSession(c, func(s *session.Session) (interface{}, error) {
		s.Dealers.Back()
		return s.DealerSeries(), nil
	})
}

// Interactive handles POST /api/v1/charts/dealers/interactive
func (h *ChartHandler) Interactive(c *gin.Context) {
	var req interactiveRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		s.Dealers.SetInteractive(req.Interactive)
		return s.DealerSeries(), nil
	})
}

// GetModal handles GET /api/v1/charts/:chart for the per-dimension modals
func (h *ChartHandler) GetModal(c *gin.Context) {
	dim, err := models.ParseDimension(c.Param("chart"))
	if err != nil {
		response.NotFound(c, fmt.Sprintf("Unknown chart %q", c.Param("chart")))
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		return h.dashboard.LoadModal(c.Request.Context(), s, dim, f), nil
	})
}

// GetSelection handles GET /api/v1/charts/:chart/selection
func (h *ChartHandler) GetSelection(c *gin.Context) {
	chart := c.Param("chart")
	withSession(c, func(s *session.Session) (interface{}, error) {
		f, err := s.Filter(chart)
		if err != nil {
			return nil, err
		}
		return selection(chart, f, false), nil
	})
}

// UpdateSelection handles POST /api/v1/charts/:chart/selection
func (h *ChartHandler) UpdateSelection(c *gin.Context) {
	chart := c.Param("chart")
	var req selectionRequest
	if !bindJSON(c, &req) {
		return
	}
	withSession(c, func(s *session.Session) (interface{}, error) {
		f, err := s.Filter(chart)
		if err != nil {
			return nil, err
		}
		changed := true
		switch req.Action {
		case "toggle":
			changed = f.Toggle(req.Name)
		case "select_all":
			f.SelectAll()
		case "deselect_all":
			f.DeselectAll()
		}
		return selection(chart, f, changed), nil
	})
}

func selection(chart string, f *viz.ItemFilter, changed bool) selectionResponse {
	return selectionResponse{
		Chart:    chart,
		Items:    f.Items(),
		Selected: f.Count(),
		Total:    f.Total(),
		Changed:  changed,
	}
}
