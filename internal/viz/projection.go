// Package viz contains the geographic and chart visualization core: pin
// projection, the map view camera, the drill-down chart state machine and
// per-chart item filters. Everything here is synchronous and allocation-only;
// callers serialize access (see internal/session).
package viz

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

// BBox is a geographic bounding box in degrees
type BBox struct {
	Lat r1.Interval
	Lng r1.Interval
}

// NewBBox builds a bounding box from degree bounds
func NewBBox(minLat, maxLat, minLng, maxLng float64) BBox {
	return BBox{
		Lat: r1.Interval{Lo: minLat, Hi: maxLat},
		Lng: r1.Interval{Lo: minLng, Hi: maxLng},
	}
}

// IndiaBBox matches the plotting frame of the India map (lat 6-38, lng 66-100)
var IndiaBBox = NewBBox(6, 38, 66, 100)

// Validate rejects zero-area or inverted boxes
func (b BBox) Validate() error {
	if b.Lat.Length() <= 0 || b.Lng.Length() <= 0 {
		return fmt.Errorf("bounding box must have positive area (lat %v..%v, lng %v..%v)",
			b.Lat.Lo, b.Lat.Hi, b.Lng.Lo, b.Lng.Hi)
	}
	return nil
}

// Canvas is the plot surface size in canvas units (SVG pixels)
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center of the canvas
func (c Canvas) Center() r2.Point {
	return r2.Point{X: c.Width / 2, Y: c.Height / 2}
}

// Project maps (lat, lng) into canvas space. Longitude runs left to right,
// latitude is inverted so north is up. The box must have positive area.
func Project(lat, lng float64, box BBox, canvas Canvas) r2.Point {
	x := (lng - box.Lng.Lo) / box.Lng.Length() * canvas.Width
	y := canvas.Height - (lat-box.Lat.Lo)/box.Lat.Length()*canvas.Height
	return r2.Point{X: x, Y: y}
}

// ProjectLatLng is Project for an s2.LatLng
func ProjectLatLng(ll s2.LatLng, box BBox, canvas Canvas) r2.Point {
	return Project(ll.Lat.Degrees(), ll.Lng.Degrees(), box, canvas)
}

// SizeScale linearly maps a value share onto a pin radius
type SizeScale struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

var (
	// StateSize is the radius range for primary (state) pins
	StateSize = SizeScale{Min: 8, Max: 28}
	// CitySize is the radius range for secondary (city) pins
	CitySize = SizeScale{Min: 5, Max: 20}
)

// Validate checks Min <= Max and both non-negative
func (s SizeScale) Validate() error {
	if s.Min < 0 || s.Max < s.Min {
		return fmt.Errorf("invalid size scale %v..%v", s.Min, s.Max)
	}
	return nil
}

// For returns the radius for value relative to maxValue. maxValue <= 0 is treated as 1.
func (s SizeScale) For(value, maxValue float64) float64 {
	return s.Min + Ratio(value, maxValue)*(s.Max-s.Min)
}

// SizeFor picks the state or city scale
func SizeFor(value, maxValue float64, primary bool) float64 {
	if primary {
		return StateSize.For(value, maxValue)
	}
	return CitySize.For(value, maxValue)
}

// Ratio is value/maxValue clamped to [0, 1], with maxValue <= 0 treated as 1
func Ratio(value, maxValue float64) float64 {
	if maxValue <= 0 || math.IsNaN(maxValue) {
		maxValue = 1
	}
	r := value / maxValue
	switch {
	case math.IsNaN(r) || r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
