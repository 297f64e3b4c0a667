package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/registry"
)

// CENTRAL projects to the canvas centre, NORTHERN 137.5 units above it.
func newTestMap(t *testing.T) *MapView {
	states := testRegistry(t, "state", coord("CENTRAL", 22, 83), coord("NORTHERN", 30, 83))
	cities := testRegistry(t, "city",
		registry.GeoCoordinate{Key: "NAGPUR", DisplayName: "Nagpur", Parent: "Maharashtra", LatLng: coord("X", 21.15, 79.09).LatLng},
	)
	v := NewMapView(DefaultMapOptions(), states, cities)
	v.SetMetrics(
		[]models.AggregatedMetric{metric("Central", 100), metric("Northern", 50), metric("Atlantis", 5)},
		[]models.AggregatedMetric{metric("Nagpur", 10)},
	)
	return v
}

func TestMapOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultMapOptions().Validate())

	bad := DefaultMapOptions()
	bad.MaxZoom = 0.5
	assert.Error(t, bad.Validate())

	bad = DefaultMapOptions()
	bad.ZoomStep = 0
	assert.Error(t, bad.Validate())
}

func TestMapViewZoomClamps(t *testing.T) {
	v := newTestMap(t)
	assert.Equal(t, 1.0, v.Zoom())
	assert.Equal(t, 1.0, v.ZoomOut())

	for i := 0; i < 10; i++ {
		v.ZoomIn()
	}
	assert.Equal(t, 4.0, v.Zoom())
	assert.Equal(t, 3.5, v.ZoomOut())

	v.Pan(10, 10)
	v.ResetCamera()
	r := v.Render()
	assert.Equal(t, 1.0, r.Zoom)
	assert.Equal(t, Offset{}, r.Pan)
}

func TestMapViewRender(t *testing.T) {
	v := newTestMap(t)
	r := v.Render()

	assert.Equal(t, ViewState, r.Mode)
	assert.Equal(t, 2, r.TotalPins)
	assert.Equal(t, 1, r.Unmatched)
	require.Len(t, r.Pins, 2)
	assert.Equal(t, "CENTRAL", r.Pins[0].ID)
	assert.InDelta(t, 250, r.Pins[0].X, 1e-6)
	assert.InDelta(t, 275, r.Pins[0].Y, 1e-6)
	assert.Equal(t, 28.0, r.Pins[0].Radius)
	assert.Equal(t, BandCritical.Color(), r.Pins[0].Color)
	assert.Equal(t, "CENTRAL: ₹100.00", r.Pins[0].Tooltip)
}

func TestMapViewClickUnderCamera(t *testing.T) {
	v := newTestMap(t)
	v.ZoomIn()
	v.ZoomIn()
	v.Pan(10, 20)

	p, ok := v.ClickAt(260, 20)
	require.True(t, ok)
	assert.Equal(t, "NORTHERN", p.ID)

	r := v.Render()
	require.NotNil(t, r.Selected)
	assert.Equal(t, "NORTHERN", r.Selected.ID)
	assert.InDelta(t, 260, r.Selected.X, 1e-6)
	assert.InDelta(t, 20, r.Selected.Y, 1e-6)
	assert.Equal(t, 18.0*2, r.Selected.Radius)

	// clicking the selected pin again clears it
	_, ok = v.ClickAt(260, 20)
	assert.False(t, ok)
	assert.Nil(t, v.Render().Selected)
}

func TestMapViewHover(t *testing.T) {
	v := newTestMap(t)
	p, ok := v.HoverAt(251, 276)
	require.True(t, ok)
	assert.Equal(t, "CENTRAL", p.ID)
	require.NotNil(t, v.Render().Hovered)

	_, ok = v.HoverAt(5, 5)
	assert.False(t, ok)
	assert.Nil(t, v.Render().Hovered)
}

func TestMapViewModeSwitch(t *testing.T) {
	v := newTestMap(t)
	var events []Event
	v.Subscribe(func(e Event) { events = append(events, e) })

	v.ZoomIn()
	require.True(t, v.Select("CENTRAL"))
	require.True(t, v.SetMode(ViewCity))
	assert.False(t, v.SetMode(ViewCity))

	r := v.Render()
	assert.Equal(t, ViewCity, r.Mode)
	assert.Equal(t, 1.5, r.Zoom)
	assert.Nil(t, r.Selected)
	require.Len(t, r.Pins, 1)
	assert.Equal(t, "Nagpur, Maharashtra: ₹10.00", r.Pins[0].Tooltip)
	assert.Equal(t, CitySize.Max, r.Pins[0].Size)

	require.Len(t, events, 2)
	assert.Equal(t, EventEntitySelected, events[0].Kind)
	assert.Equal(t, Event{Kind: EventViewModeChanged, Source: "map", Entity: "city"}, events[1])
}

func TestMapViewSearch(t *testing.T) {
	v := newTestMap(t)

	v.Search("nor")
	pins := v.VisiblePins()
	require.Len(t, pins, 1)
	assert.Equal(t, "NORTHERN", pins[0].ID)

	_, ok := v.ClickAt(250, 275)
	assert.False(t, ok, "filtered pins are not hit-testable")
	assert.False(t, v.Select("CENTRAL"))

	v.Search("zzz")
	r := v.Render()
	assert.True(t, r.Empty)
	assert.Equal(t, `No locations match "zzz"`, r.Placeholder)
	assert.Equal(t, 2, r.TotalPins)

	v.Search("")
	assert.Len(t, v.VisiblePins(), 2)
}

func TestMapViewNoData(t *testing.T) {
	v := NewMapView(DefaultMapOptions(), testRegistry(t, "state"), testRegistry(t, "city"))
	r := v.Render()
	assert.True(t, r.Empty)
	assert.Equal(t, "No state data available", r.Placeholder)
	_, ok := v.ClickAt(250, 275)
	assert.False(t, ok)
}

func TestMapViewSelectionSurvivesSameData(t *testing.T) {
	v := newTestMap(t)
	require.True(t, v.Select("NORTHERN"))

	assert.False(t, v.SetMetrics(
		[]models.AggregatedMetric{metric("Central", 100), metric("Northern", 50), metric("Atlantis", 5)},
		[]models.AggregatedMetric{metric("Nagpur", 10)},
	))
	require.NotNil(t, v.Render().Selected)

	assert.True(t, v.SetMetrics([]models.AggregatedMetric{metric("Central", 1)}, nil))
	assert.Nil(t, v.Render().Selected)
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode(" City ")
	require.NoError(t, err)
	assert.Equal(t, ViewCity, m)
	_, err = ParseViewMode("country")
	assert.Error(t, err)
}
