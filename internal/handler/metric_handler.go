package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/internal/stats"
	"github.com/jengzang/salesmap-backend-go/pkg/response"
)

// MetricHandler serves raw aggregated metrics
type MetricHandler struct {
	metrics *service.MetricService
}

// NewMetricHandler creates a new metric handler
func NewMetricHandler(metrics *service.MetricService) *MetricHandler {
	return &MetricHandler{metrics: metrics}
}

// GetMetrics handles GET /api/v1/metrics/:dimension
func (h *MetricHandler) GetMetrics(c *gin.Context) {
	dim, err := models.ParseDimension(c.Param("dimension"))
	if err != nil {
		response.BadRequest(c, "Invalid dimension", err)
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}

	metrics := h.metrics.FetchAggregatedMetrics(c.Request.Context(), dim, f)
	response.Success(c, gin.H{
		"dimension": dim,
		"metrics":   metrics,
		"count":     len(metrics),
		"total":     models.TotalValue(metrics),
		"summary":   stats.Summarize(metrics),
	})
}
