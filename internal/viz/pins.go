package viz

import (
	"sort"
	"strconv"

	"github.com/golang/geo/r2"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/registry"
)

// Locator resolves free-text place names to coordinates
type Locator interface {
	Lookup(name string) (registry.GeoCoordinate, bool)
}

// Pin is a renderable marker derived from one metric and its matched coordinate
type Pin struct {
	ID          string                  `json:"id"`
	DisplayName string                  `json:"display_name"`
	Parent      string                  `json:"parent,omitempty"`
	Metric      models.AggregatedMetric `json:"metric"`
	Point       r2.Point                `json:"-"` // Canvas space
	Size        float64                 `json:"size"`
	Band        ColorBand               `json:"band"`
}

// PinOptions configure projection and scaling for one pin layer
type PinOptions struct {
	BBox   BBox
	Canvas Canvas
	Size   SizeScale
	Bands  BandThresholds
}

// BuildPins joins metrics against the locator. Metrics whose names are not in
// the registry are dropped. The result keeps input order and is deterministic.
func BuildPins(metrics []models.AggregatedMetric, loc Locator, opts PinOptions) []Pin {
	maxValue := models.MaxValue(metrics)
	pins := make([]Pin, 0, len(metrics))
	seen := make(map[string]int, len(metrics))

	for _, m := range metrics {
		coord, ok := loc.Lookup(m.Name)
		if !ok {
			continue
		}

		id := coord.Key
		seen[id]++
		if n := seen[id]; n > 1 {
			id = id + "~" + strconv.Itoa(n)
		}

		ratio := Ratio(m.Value, maxValue)
		pins = append(pins, Pin{
			ID:          id,
			DisplayName: coord.DisplayName,
			Parent:      coord.Parent,
			Metric:      m,
			Point:       ProjectLatLng(coord.LatLng, opts.BBox, opts.Canvas),
			Size:        opts.Size.For(m.Value, maxValue),
			Band:        opts.Bands.BandFor(ratio),
		})
	}
	return pins
}

// Unmatched returns the names that BuildPins would drop
func Unmatched(metrics []models.AggregatedMetric, loc Locator) []string {
	var names []string
	for _, m := range metrics {
		if _, ok := loc.Lookup(m.Name); !ok {
			names = append(names, m.Name)
		}
	}
	return names
}

// DrawOrder returns a copy sorted largest first so small pins paint on top
func DrawOrder(pins []Pin) []Pin {
	out := make([]Pin, len(pins))
	copy(out, pins)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Size > out[j].Size
	})
	return out
}
