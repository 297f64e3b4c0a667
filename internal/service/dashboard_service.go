package service

import (
	"context"
	"strings"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/session"
	"github.com/jengzang/salesmap-backend-go/internal/viz"
)

// chartTypes picks the modal rendering per dimension
var chartTypes = map[models.Dimension]viz.ChartType{
	models.DimensionDealer:   viz.ChartDonut,
	models.DimensionState:    viz.ChartPie,
	models.DimensionCity:     viz.ChartBar,
	models.DimensionProduct:  viz.ChartBar,
	models.DimensionCategory: viz.ChartHorizontalBar,
}

// DashboardService loads fetched metrics into a session's views. Callers hold
// the session lock (session.Do).
type DashboardService struct {
	metrics *MetricService
}

// NewDashboardService creates a dashboard service
func NewDashboardService(metrics *MetricService) *DashboardService {
	return &DashboardService{metrics: metrics}
}

// LoadMap feeds state and city metrics to the map view
func (s *DashboardService) LoadMap(ctx context.Context, sess *session.Session, f models.MetricFilter) viz.MapRender {
	states := s.metrics.FetchAggregatedMetrics(ctx, models.DimensionState, f)
	cities := s.metrics.FetchAggregatedMetrics(ctx, models.DimensionCity, f)
	sess.Map.SetMetrics(states, cities)
	return sess.Map.Render()
}

// LoadDealerChart feeds dealer aggregates and per-dealer product detail rows
// to the drill-down chart
func (s *DashboardService) LoadDealerChart(ctx context.Context, sess *session.Session, f models.MetricFilter) viz.Series {
	dealers := s.metrics.FetchAggregatedMetrics(ctx, models.DimensionDealer, f)
	detailFilter := f
	detailFilter.Limit = 0
	products := s.metrics.FetchAggregatedMetrics(ctx, models.DimensionProduct, detailFilter)
	sess.Dealers.SetData(dealers, products)
	return sess.DealerSeries()
}

// LoadModal builds the expanded chart for one dimension
func (s *DashboardService) LoadModal(ctx context.Context, sess *session.Session, dim models.Dimension, f models.MetricFilter) viz.ModalRender {
	metrics := s.metrics.FetchAggregatedMetrics(ctx, dim, f)
	rows := make([]viz.Row, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, viz.Row{"name": m.Name, "value": m.Value, "quantity": m.Quantity})
	}

	modal := sess.Modal(string(dim))
	modal.SetConfig(viz.ChartConfig{
		ID:    string(dim),
		Type:  chartTypes[dim],
		Title: "Revenue by " + strings.ToUpper(string(dim[:1])) + string(dim[1:]),
		Rows:  rows,
	})
	return modal.Render()
}
