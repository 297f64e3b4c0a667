package viz

import (
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/registry"
)

func testRegistry(t *testing.T, kind string, coords ...registry.GeoCoordinate) *registry.Registry {
	t.Helper()
	r, err := registry.New(kind, coords)
	require.NoError(t, err)
	return r
}

func coord(key string, lat, lng float64) registry.GeoCoordinate {
	return registry.GeoCoordinate{Key: key, LatLng: s2.LatLngFromDegrees(lat, lng)}
}

func metric(name string, value float64) models.AggregatedMetric {
	return models.AggregatedMetric{Name: name, Value: value}
}

func stateOpts() PinOptions {
	return PinOptions{BBox: IndiaBBox, Canvas: Canvas{Width: 500, Height: 550}, Size: StateSize, Bands: DefaultBands}
}
