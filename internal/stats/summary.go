package stats

import (
	"math"
	"sort"

	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// Summary describes how sales value is spread across the entities of one dimension
type Summary struct {
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
	TopShare float64 `json:"top_share"` // Percent of total held by the largest entity
	// HHI is the Herfindahl index of value shares in [0, 1]; 1 means a single entity holds everything.
	HHI float64 `json:"hhi"`
}

// Summarize computes a Summary for aggregated metrics
func Summarize(metrics []models.AggregatedMetric) Summary {
	values := make([]float64, len(metrics))
	for i, m := range metrics {
		values[i] = m.Value
	}

	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Total = Sum(sorted)
	s.Mean = s.Total / float64(len(sorted))
	s.Median = quantileSorted(sorted, 0.5)
	s.Q1 = quantileSorted(sorted, 0.25)
	s.Q3 = quantileSorted(sorted, 0.75)
	s.Max = sorted[len(sorted)-1]
	if s.Total > 0 {
		s.TopShare = s.Max / s.Total * 100
		s.HHI = Concentration(values)
	}
	return s
}

// Sum adds up values
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Quantile calculates the q-th quantile (0 <= q <= 1) with linear interpolation
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Concentration returns the sum of squared value shares (Herfindahl index).
// Zero when the total is zero.
func Concentration(values []float64) float64 {
	sum := Sum(values)
	if sum == 0 {
		return 0
	}

	var hhi float64
	for _, v := range values {
		if v > 0 {
			p := v / sum
			hhi += p * p
		}
	}
	return hhi
}
