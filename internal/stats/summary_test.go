package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jengzang/salesmap-backend-go/internal/models"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]models.AggregatedMetric{
		{Name: "A", Value: 50},
		{Name: "B", Value: 10},
		{Name: "C", Value: 30},
		{Name: "D", Value: 10},
	})

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 100.0, s.Total)
	assert.Equal(t, 25.0, s.Mean)
	assert.Equal(t, 20.0, s.Median)
	assert.Equal(t, 10.0, s.Q1)
	assert.InDelta(t, 35.0, s.Q3, 1e-9)
	assert.Equal(t, 50.0, s.Max)
	assert.Equal(t, 50.0, s.TopShare)
	assert.InDelta(t, 0.25+0.01+0.09+0.01, s.HHI, 1e-9)
}

func TestSummarizeEmptyAndZero(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	s := Summarize([]models.AggregatedMetric{{Name: "A"}, {Name: "B"}})
	assert.Equal(t, 2, s.Count)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.TopShare)
	assert.Zero(t, s.HHI)
}

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, Quantile(values, -1))
	assert.Equal(t, 4.0, Quantile(values, 2))
	assert.Equal(t, 2.5, Quantile(values, 0.5))
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
	assert.Zero(t, Quantile(nil, 0.5))
}

func TestConcentration(t *testing.T) {
	assert.Equal(t, 1.0, Concentration([]float64{0, 42}))
	assert.Equal(t, 0.5, Concentration([]float64{5, 5}))
	assert.Zero(t, Concentration([]float64{0, 0}))
}
