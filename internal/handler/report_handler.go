package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// ReportHandler serves the non-billing and comparative reports
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type nonBillingQuery struct {
	Period     string  `form:"period"`
	AsOf       string  `form:"as_of"` // Defaults to "to", then today
	MinDecline float64 `form:"min_decline,default=50"`
}

type comparativeQuery struct {
	Dimension string `form:"dimension,default=dealer"`
	Years     int    `form:"years,default=2"`
	EndYear   int    `form:"end_year"` // Defaults to the year of "to", then this year
}

// NonBilling handles GET /api/v1/reports/non-billing
func (h *ReportHandler) NonBilling(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	var q nonBillingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	period, err := models.ParsePeriod(q.Period)
	if err != nil {
		response.BadRequest(c, "Invalid period", err)
		return
	}
	asOf, err := models.ParseDate(q.AsOf)
	if err != nil {
		response.BadRequest(c, "Invalid as_of date", err)
		return
	}
	if asOf.IsZero() {
		asOf = f.Range.To
	}

	rep, err := h.reports.NonBilling(c.Request.Context(), service.NonBillingQuery{
		Period:     period,
		AsOf:       asOf,
		MinDecline: q.MinDecline,
		Filter:     f,
	})
	if err != nil {
		reportError(c, err)
		return
	}
	response.Success(c, rep)
}

// Comparative handles GET /api/v1/reports/comparative
func (h *ReportHandler) Comparative(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	var q comparativeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	dim, err := models.ParseDimension(q.Dimension)
	if err != nil {
		response.BadRequest(c, "Invalid dimension", err)
		return
	}
	if q.EndYear == 0 && !f.Range.To.IsZero() {
		q.EndYear = f.Range.To.Year()
	}

	rep, err := h.reports.Comparative(c.Request.Context(), service.ComparativeQuery{
		Dimension: dim,
		Years:     q.Years,
		EndYear:   q.EndYear,
		Filter:    f,
	})
	if err != nil {
		reportError(c, err)
		return
	}
	response.Success(c, rep)
}

func reportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidInput) {
		response.BadRequest(c, "Invalid report parameters", err)
		return
	}
	response.InternalError(c, "Failed to build report", err)
}
