package ingest

import (
	"sort"
	"strings"

	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// Aggregate sums records per dimension value, highest value first.
// Product rows are grouped per dealer so they can serve as drill-down detail.
func Aggregate(records []models.SalesRecord, dim models.Dimension) []models.AggregatedMetric {
	type key struct{ group, name string }
	index := make(map[key]int)
	var out []models.AggregatedMetric

	for _, r := range records {
		name := strings.TrimSpace(r.Field(dim))
		if name == "" {
			continue
		}
		k := key{name: name}
		if dim == models.DimensionProduct {
			k.group = strings.TrimSpace(r.Dealer)
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, models.AggregatedMetric{Name: name, GroupKey: k.group})
		}
		out[i].Value += r.Value
		out[i].Quantity += r.Quantity
	}

	SortByValue(out)
	return out
}

// Filter drops records outside f's date range, dealer and state filters.
// Undated records only pass an open range.
func Filter(records []models.SalesRecord, f models.MetricFilter) []models.SalesRecord {
	out := records[:0:0]
	for _, r := range records {
		if !f.Range.Contains(r.Date) {
			continue
		}
		if !f.KeepDealer(r.Dealer) {
			continue
		}
		if !f.KeepState(r.State) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortByValue orders metrics by value descending, then name
func SortByValue(metrics []models.AggregatedMetric) {
	sort.SliceStable(metrics, func(i, j int) bool {
		if metrics[i].Value != metrics[j].Value {
			return metrics[i].Value > metrics[j].Value
		}
		return metrics[i].Name < metrics[j].Name
	})
}

// Top keeps the first n metrics; n <= 0 keeps all
func Top(metrics []models.AggregatedMetric, n int) []models.AggregatedMetric {
	if n <= 0 || n >= len(metrics) {
		return metrics
	}
	return metrics[:n]
}
