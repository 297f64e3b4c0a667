package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jengzang/salesmap-backend-go/internal/logger"
	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// MetricSource aggregates stored sales
type MetricSource interface {
	Aggregate(ctx context.Context, dim models.Dimension, f models.MetricFilter) ([]models.AggregatedMetric, error)
}

// MetricService handles business logic for aggregated metrics
type MetricService struct {
	source MetricSource
}

// NewMetricService creates a new metric service
func NewMetricService(source MetricSource) *MetricService {
	return &MetricService{source: source}
}

// FetchAggregatedMetrics never fails: a source error is logged and yields no
// data, which the views render as their empty placeholder.
func (s *MetricService) FetchAggregatedMetrics(ctx context.Context, dim models.Dimension, f models.MetricFilter) []models.AggregatedMetric {
	metrics, err := s.source.Aggregate(ctx, dim, f)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"dimension": dim,
			"error":     err,
		}).Warn("metric fetch failed, serving empty data")
		return []models.AggregatedMetric{}
	}
	if metrics == nil {
		metrics = []models.AggregatedMetric{}
	}
	return metrics
}
