package models

import (
	"fmt"
	"strings"
)

// Dimension names the business axis a metric was aggregated over
type Dimension string

const (
	DimensionDealer   Dimension = "dealer"
	DimensionState    Dimension = "state"
	DimensionCity     Dimension = "city"
	DimensionProduct  Dimension = "product"
	DimensionCategory Dimension = "category"
)

// Dimensions lists every supported dimension in display order
var Dimensions = []Dimension{
	DimensionDealer,
	DimensionState,
	DimensionCity,
	DimensionProduct,
	DimensionCategory,
}

// ParseDimension validates a dimension name (case-insensitive)
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// AggregatedMetric is one row of pre-aggregated business data
type AggregatedMetric struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`               // Revenue, never negative
	Quantity float64 `json:"quantity,omitempty"`  // Units sold
	GroupKey string  `json:"group_key,omitempty"` // Owning entity for drill-down detail rows
}

// TotalValue sums Value across metrics
func TotalValue(metrics []AggregatedMetric) float64 {
	var total float64
	for _, m := range metrics {
		total += m.Value
	}
	return total
}

// MaxValue returns the largest Value, floored at 1 so it is always a safe divisor
func MaxValue(metrics []AggregatedMetric) float64 {
	max := 1.0
	for _, m := range metrics {
		if m.Value > max {
			max = m.Value
		}
	}
	return max
}
