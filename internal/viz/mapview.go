package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/pkg/format"
)

// ViewMode selects the pin layer
type ViewMode string

const (
	ViewState ViewMode = "state"
	ViewCity  ViewMode = "city"
)

// ParseViewMode validates a view mode name
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case ViewState:
		return ViewState, nil
	case ViewCity:
		return ViewCity, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// MapOptions configure the map view
type MapOptions struct {
	BBox      BBox
	Canvas    Canvas
	MinZoom   float64
	MaxZoom   float64
	ZoomStep  float64
	StateSize SizeScale
	CitySize  SizeScale
	Bands     BandThresholds
}

// DefaultMapOptions is the 500x550 India map
func DefaultMapOptions() MapOptions {
	return MapOptions{
		BBox:      IndiaBBox,
		Canvas:    Canvas{Width: 500, Height: 550},
		MinZoom:   1,
		MaxZoom:   4,
		ZoomStep:  0.5,
		StateSize: StateSize,
		CitySize:  CitySize,
		Bands:     DefaultBands,
	}
}

// Validate checks the camera limits and scales
func (o MapOptions) Validate() error {
	if err := o.BBox.Validate(); err != nil {
		return err
	}
	if o.Canvas.Width <= 0 || o.Canvas.Height <= 0 {
		return fmt.Errorf("canvas must be positive, got %vx%v", o.Canvas.Width, o.Canvas.Height)
	}
	if o.MinZoom <= 0 || o.MaxZoom < o.MinZoom {
		return fmt.Errorf("zoom range must satisfy 0 < min <= max, got %v..%v", o.MinZoom, o.MaxZoom)
	}
	if o.ZoomStep <= 0 {
		return fmt.Errorf("zoom step must be positive")
	}
	if err := o.StateSize.Validate(); err != nil {
		return err
	}
	if err := o.CitySize.Validate(); err != nil {
		return err
	}
	return o.Bands.Validate()
}

type pinLayer struct {
	pins  []Pin
	index *pinIndex
}

func newPinLayer(pins []Pin) pinLayer {
	return pinLayer{pins: pins, index: newPinIndex(pins)}
}

// MapView is the interactive state of the geographic pin map. Camera state
// (zoom, pan) is independent of the data layer; hover and selection belong
// to the current layer's pins.
type MapView struct {
	opts       MapOptions
	states     Locator
	cities     Locator
	layers     map[ViewMode]pinLayer
	unmatched  map[ViewMode]int
	identity   uint64
	loaded     bool
	zoom       float64
	pan        r2.Point
	hovered    string
	selected   string
	search     string
	mode       ViewMode
	fullscreen bool
	notifier   Notifier
}

// NewMapView creates a state-mode view at minimum zoom with no data
func NewMapView(opts MapOptions, states, cities Locator) *MapView {
	return &MapView{
		opts:      opts,
		states:    states,
		cities:    cities,
		layers:    map[ViewMode]pinLayer{},
		unmatched: map[ViewMode]int{},
		zoom:      opts.MinZoom,
		mode:      ViewState,
	}
}

// Subscribe registers a listener for selection and mode events
func (v *MapView) Subscribe(fn func(Event)) func() {
	return v.notifier.Subscribe(fn)
}

// SetMetrics rebuilds both pin layers. Data with a new identity drops
// hover and any selection whose pin no longer exists.
func (v *MapView) SetMetrics(stateMetrics, cityMetrics []models.AggregatedMetric) bool {
	id := Identity(stateMetrics, cityMetrics)
	if v.loaded && id == v.identity {
		return false
	}
	v.identity = id
	v.loaded = true

	v.layers[ViewState] = newPinLayer(BuildPins(stateMetrics, v.states, PinOptions{
		BBox: v.opts.BBox, Canvas: v.opts.Canvas, Size: v.opts.StateSize, Bands: v.opts.Bands,
	}))
	v.layers[ViewCity] = newPinLayer(BuildPins(cityMetrics, v.cities, PinOptions{
		BBox: v.opts.BBox, Canvas: v.opts.Canvas, Size: v.opts.CitySize, Bands: v.opts.Bands,
	}))
	v.unmatched[ViewState] = len(Unmatched(stateMetrics, v.states))
	v.unmatched[ViewCity] = len(Unmatched(cityMetrics, v.cities))

	v.hovered = ""
	if _, ok := v.pin(v.selected); !ok && v.selected != "" {
		v.selected = ""
		v.notifier.emit(Event{Kind: EventEntityCleared, Source: "map"})
	}
	return true
}

// Mode returns the active layer
func (v *MapView) Mode() ViewMode { return v.mode }

// Zoom returns the zoom factor
func (v *MapView) Zoom() float64 { return v.zoom }

// SetMode switches the pin layer; hover and selection are discarded,
// the camera is kept
func (v *MapView) SetMode(mode ViewMode) bool {
	if mode != ViewState && mode != ViewCity {
		return false
	}
	if mode == v.mode {
		return false
	}
	v.mode = mode
	v.hovered = ""
	v.selected = ""
	v.notifier.emit(Event{Kind: EventViewModeChanged, Source: "map", Entity: string(mode)})
	return true
}

// ZoomIn steps the zoom up, clamped to MaxZoom
func (v *MapView) ZoomIn() float64 {
	v.zoom = v.clampZoom(v.zoom + v.opts.ZoomStep)
	return v.zoom
}

// ZoomOut steps the zoom down, clamped to MinZoom
func (v *MapView) ZoomOut() float64 {
	v.zoom = v.clampZoom(v.zoom - v.opts.ZoomStep)
	return v.zoom
}

// ResetCamera restores minimum zoom and removes panning
func (v *MapView) ResetCamera() {
	v.zoom = v.opts.MinZoom
	v.pan = r2.Point{}
}

func (v *MapView) clampZoom(z float64) float64 {
	return math.Max(v.opts.MinZoom, math.Min(v.opts.MaxZoom, z))
}

// Pan moves the camera by a screen-space offset
func (v *MapView) Pan(dx, dy float64) r2.Point {
	v.pan = v.pan.Add(r2.Point{X: dx, Y: dy})
	return v.pan
}

// SetFullscreen toggles the presentation size
func (v *MapView) SetFullscreen(on bool) {
	v.fullscreen = on
}

// Fullscreen reports the presentation size
func (v *MapView) Fullscreen() bool { return v.fullscreen }

// Search filters rendered pins by case-insensitive substring of the display
// name. The pin layer itself is untouched, so clearing the query restores it.
func (v *MapView) Search(query string) {
	v.search = strings.TrimSpace(query)
	if p, ok := v.pin(v.hovered); ok && !v.matches(p) {
		v.hovered = ""
	}
}

func (v *MapView) matches(p Pin) bool {
	if v.search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.DisplayName), strings.ToLower(v.search))
}

// toCanvas inverts the camera: screen = (canvas - c) * zoom + c + pan
func (v *MapView) toCanvas(screen r2.Point) r2.Point {
	c := v.opts.Canvas.Center()
	return screen.Sub(c).Sub(v.pan).Mul(1 / v.zoom).Add(c)
}

func (v *MapView) toScreen(canvas r2.Point) r2.Point {
	c := v.opts.Canvas.Center()
	return canvas.Sub(c).Mul(v.zoom).Add(c).Add(v.pan)
}

// PinAt hit-tests a screen point against the visible pins
func (v *MapView) PinAt(x, y float64) (Pin, bool) {
	layer, ok := v.layers[v.mode]
	if !ok {
		return Pin{}, false
	}
	return layer.index.at(v.toCanvas(r2.Point{X: x, Y: y}), v.matches)
}

// HoverAt updates the hovered pin from a pointer position
func (v *MapView) HoverAt(x, y float64) (Pin, bool) {
	p, ok := v.PinAt(x, y)
	if !ok {
		v.hovered = ""
		return Pin{}, false
	}
	v.hovered = p.ID
	return p, true
}

// ClickAt selects the pin under the pointer; clicking the selected pin or
// empty space clears the selection
func (v *MapView) ClickAt(x, y float64) (Pin, bool) {
	p, ok := v.PinAt(x, y)
	if !ok || p.ID == v.selected {
		v.clearSelection()
		return Pin{}, false
	}
	v.selectPin(p)
	return p, true
}

// Select selects a visible pin by ID
func (v *MapView) Select(id string) bool {
	p, ok := v.pin(id)
	if !ok || !v.matches(p) {
		return false
	}
	v.selectPin(p)
	return true
}

func (v *MapView) selectPin(p Pin) {
	v.selected = p.ID
	v.notifier.emit(Event{Kind: EventEntitySelected, Source: "map", Entity: p.Metric.Name})
}

func (v *MapView) clearSelection() {
	if v.selected == "" {
		return
	}
	v.selected = ""
	v.notifier.emit(Event{Kind: EventEntityCleared, Source: "map"})
}

func (v *MapView) pin(id string) (Pin, bool) {
	if id == "" {
		return Pin{}, false
	}
	for _, p := range v.layers[v.mode].pins {
		if p.ID == id {
			return p, true
		}
	}
	return Pin{}, false
}

// VisiblePins returns the current layer's pins that pass the search, in draw order
func (v *MapView) VisiblePins() []Pin {
	var out []Pin
	for _, p := range v.layers[v.mode].pins {
		if v.matches(p) {
			out = append(out, p)
		}
	}
	return DrawOrder(out)
}

// RenderedPin is a pin placed in screen space
type RenderedPin struct {
	Pin
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Color   string  `json:"color"`
	Tooltip string  `json:"tooltip"`
}

// Offset is a screen-space translation
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MapRender is one render pass of the map view
type MapRender struct {
	Mode        ViewMode      `json:"mode"`
	Zoom        float64       `json:"zoom"`
	Pan         Offset        `json:"pan"`
	Fullscreen  bool          `json:"fullscreen"`
	Canvas      Canvas        `json:"canvas"`
	Search      string        `json:"search,omitempty"`
	Pins        []RenderedPin `json:"pins"`
	TotalPins   int           `json:"total_pins"`
	Unmatched   int           `json:"unmatched"`
	Hovered     *RenderedPin  `json:"hovered,omitempty"`
	Selected    *RenderedPin  `json:"selected,omitempty"`
	Empty       bool          `json:"empty"`
	Placeholder string        `json:"placeholder,omitempty"`
}

// Render places the visible pins in screen space
func (v *MapView) Render() MapRender {
	layer := v.layers[v.mode]
	out := MapRender{
		Mode:       v.mode,
		Zoom:       v.zoom,
		Pan:        Offset{X: v.pan.X, Y: v.pan.Y},
		Fullscreen: v.fullscreen,
		Canvas:     v.opts.Canvas,
		Search:     v.search,
		TotalPins:  len(layer.pins),
		Unmatched:  v.unmatched[v.mode],
		Pins:       []RenderedPin{},
	}

	for _, p := range v.VisiblePins() {
		rp := v.place(p)
		out.Pins = append(out.Pins, rp)
		if p.ID == v.hovered {
			h := rp
			out.Hovered = &h
		}
		if p.ID == v.selected {
			s := rp
			out.Selected = &s
		}
	}

	if len(out.Pins) == 0 {
		out.Empty = true
		switch {
		case len(layer.pins) == 0:
			out.Placeholder = fmt.Sprintf("No %s data available", v.mode)
		default:
			out.Placeholder = fmt.Sprintf("No locations match %q", v.search)
		}
	}
	return out
}

func (v *MapView) place(p Pin) RenderedPin {
	s := v.toScreen(p.Point)
	name := p.DisplayName
	if p.Parent != "" {
		name = fmt.Sprintf("%s, %s", p.DisplayName, p.Parent)
	}
	return RenderedPin{
		Pin:     p,
		X:       s.X,
		Y:       s.Y,
		Radius:  p.Size * v.zoom,
		Color:   p.Band.Color(),
		Tooltip: fmt.Sprintf("%s: %s", name, format.IndianCurrency(p.Metric.Value)),
	}
}
