package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePolyline(t *testing.T) {
	// Reference example from the polyline algorithm documentation
	points := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")

	assert.Len(t, points, 3)
	assert.InDelta(t, 38.5, points[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, points[0].Lng, 1e-5)
	assert.InDelta(t, 40.7, points[1].Lat, 1e-5)
	assert.InDelta(t, -120.95, points[1].Lng, 1e-5)
	assert.InDelta(t, 43.252, points[2].Lat, 1e-5)
	assert.InDelta(t, -126.453, points[2].Lng, 1e-5)
}

func TestDecodePolylineEmpty(t *testing.T) {
	assert.Empty(t, DecodePolyline(""))
}

func TestDecodePolylineTruncated(t *testing.T) {
	// A dangling continuation byte must not panic or emit a bogus point
	points := DecodePolyline("_p~iF~ps|U_")
	assert.Len(t, points, 1)
}

func TestHaversine(t *testing.T) {
	// Portal Norte to Calle 100 is roughly 7.7 km along the corridor
	portalNorte := Point{Lat: 4.75459, Lng: -74.04570}
	calle100 := Point{Lat: 4.68580, Lng: -74.05700}

	distance := Haversine(portalNorte, calle100)
	assert.Greater(t, distance, 7000.0)
	assert.Less(t, distance, 8500.0)

	assert.Zero(t, Haversine(portalNorte, portalNorte))
}

func TestNearestStop(t *testing.T) {
	stops := []Stop{
		{ID: "a", Name: "A", Lat: 4.0, Lng: -74.0},
		{ID: "b", Name: "B", Lat: 5.0, Lng: -74.0},
	}

	stop, distance, ok := NearestStop(Point{Lat: 4.1, Lng: -74.0}, stops)
	assert.True(t, ok)
	assert.Equal(t, "a", stop.ID)
	assert.Greater(t, distance, 0.0)

	_, _, ok = NearestStop(Point{}, nil)
	assert.False(t, ok)
}

func TestSnapToStopsDeduplicatesPreservingOrder(t *testing.T) {
	stops := []Stop{
		{ID: "north", Lat: 4.75, Lng: -74.05},
		{ID: "mid", Lat: 4.70, Lng: -74.05},
		{ID: "south", Lat: 4.65, Lng: -74.06},
	}

	route := []Point{
		{Lat: 4.7501, Lng: -74.0501}, // north
		{Lat: 4.7499, Lng: -74.0499}, // north again
		{Lat: 4.7001, Lng: -74.0501}, // mid
		{Lat: 4.6501, Lng: -74.0601}, // south
		{Lat: 4.7000, Lng: -74.0500}, // mid again, must not reappear
	}

	snapped := SnapToStops(route, stops, 500)

	ids := make([]string, 0, len(snapped))
	for _, s := range snapped {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"north", "mid", "south"}, ids)
}

func TestSnapToStopsSkipsFarPoints(t *testing.T) {
	stops := []Stop{{ID: "only", Lat: 4.75, Lng: -74.05}}

	// ~11 km away from the only stop
	route := []Point{{Lat: 4.65, Lng: -74.05}}
	assert.Empty(t, SnapToStops(route, stops, 500))

	// Raising the threshold accepts it
	assert.Len(t, SnapToStops(route, stops, 20000), 1)
}

func TestSnapToStopsEmptyCatalog(t *testing.T) {
	assert.Empty(t, SnapToStops([]Point{{Lat: 4.0, Lng: -74.0}}, nil, math.MaxFloat64))
}
