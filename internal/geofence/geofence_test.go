package geofence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	points := []Coordinate{
		{Lat: 12.9716, Lng: 77.5946},
		{Lat: 20.0, Lng: 80.0},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: -179.9},
		{Lat: 0, Lng: 0},
	}

	t.Run("zero for identical points", func(t *testing.T) {
		for _, p := range points {
			assert.Equal(t, 0.0, DistanceKm(p, p))
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		for _, a := range points {
			for _, b := range points {
				assert.Equal(t, DistanceKm(a, b), DistanceKm(b, a))
			}
		}
	})

	t.Run("positive for distinct points", func(t *testing.T) {
		assert.Greater(t, DistanceKm(points[0], Coordinate{Lat: 12.9716, Lng: 77.5947}), 0.0)
	})

	t.Run("one degree of latitude is about 111 km", func(t *testing.T) {
		d := DistanceKm(Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 1, Lng: 0})
		assert.InDelta(t, 111.19, d, 0.01)
	})
}

func TestNormalizeCoordinate(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Coordinate
		ok   bool
	}{
		{name: "nil", raw: nil},
		{name: "empty map", raw: map[string]any{}},
		{name: "missing lng", raw: map[string]any{"lat": 12.9}},
		{name: "numbers", raw: map[string]any{"lat": 12.9, "lng": 77.5}, want: Coordinate{Lat: 12.9, Lng: 77.5}, ok: true},
		{name: "integers", raw: map[string]any{"lat": int64(12), "lng": 77}, want: Coordinate{Lat: 12, Lng: 77}, ok: true},
		{name: "numeric strings coerced", raw: map[string]any{"lat": "12.5", "lng": " 77.25 "}, want: Coordinate{Lat: 12.5, Lng: 77.25}, ok: true},
		{name: "non-numeric string", raw: map[string]any{"lat": "north", "lng": 77.5}},
		{name: "empty string", raw: map[string]any{"lat": "", "lng": 77.5}},
		{name: "NaN", raw: map[string]any{"lat": math.NaN(), "lng": 77.5}},
		{name: "infinite", raw: map[string]any{"lat": 12.9, "lng": math.Inf(1)}},
		{name: "boolean", raw: map[string]any{"lat": true, "lng": 77.5}},
		{name: "coordinate value", raw: Coordinate{Lat: 1, Lng: 2}, want: Coordinate{Lat: 1, Lng: 2}, ok: true},
		{name: "nil coordinate pointer", raw: (*Coordinate)(nil)},
		{name: "unsupported shape", raw: []float64{12.9, 77.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeCoordinate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithinServiceRadius(t *testing.T) {
	f := New(DefaultConfig())

	t.Run("city centre is inside", func(t *testing.T) {
		assert.True(t, f.WithinServiceRadius(Coordinate{Lat: 12.9716, Lng: 77.5946}))
	})

	t.Run("far away is outside", func(t *testing.T) {
		assert.False(t, f.WithinServiceRadius(Coordinate{Lat: 20.0, Lng: 80.0}))
	})

	t.Run("malformed input is outside", func(t *testing.T) {
		assert.False(t, f.WithinServiceRadius(nil))
		assert.False(t, f.WithinServiceRadius(map[string]any{"lat": "x", "lng": 77.59}))
	})

	t.Run("exact radius is inside and radius plus epsilon is outside", func(t *testing.T) {
		center := DefaultCenter
		p := Coordinate{Lat: 13.1, Lng: 77.7}
		d := DistanceKm(p, center)

		exact := New(Config{Center: center, RadiusKm: d})
		assert.True(t, exact.WithinServiceRadius(p))

		// 半径略小于距离，等价于点位于 radius + ε
		short := New(Config{Center: center, RadiusKm: d - 1e-9})
		assert.False(t, short.WithinServiceRadius(p))
	})
}

func TestWithinAdminBounds(t *testing.T) {
	f := New(DefaultConfig())

	assert.True(t, f.WithinAdminBounds(Coordinate{Lat: 15.0, Lng: 76.0}))
	assert.True(t, f.WithinAdminBounds(Coordinate{Lat: DefaultBounds.MinLat, Lng: DefaultBounds.MaxLng}), "edges are inside")
	assert.False(t, f.WithinAdminBounds(Coordinate{Lat: 20.0, Lng: 80.0}))
	assert.False(t, f.WithinAdminBounds(Coordinate{Lat: 15.0, Lng: 73.99}))
	assert.False(t, f.WithinAdminBounds(map[string]any{"lat": nil, "lng": 76.0}))
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   Coordinate
		want Coordinate
	}{
		{in: Coordinate{Lat: 12, Lng: 77}, want: Coordinate{Lat: 12, Lng: 77}},
		{in: Coordinate{Lat: 95, Lng: 77}, want: Coordinate{Lat: 90, Lng: 77}},
		{in: Coordinate{Lat: -100, Lng: 77}, want: Coordinate{Lat: -90, Lng: 77}},
		{in: Coordinate{Lat: 0, Lng: 190}, want: Coordinate{Lat: 0, Lng: -170}},
		{in: Coordinate{Lat: 0, Lng: -190}, want: Coordinate{Lat: 0, Lng: 170}},
		{in: Coordinate{Lat: 0, Lng: 180}, want: Coordinate{Lat: 0, Lng: 180}},
	}
	for _, tt := range tests {
		got := Clamp(tt.in)
		require.InDelta(t, tt.want.Lat, got.Lat, 1e-9)
		require.InDelta(t, tt.want.Lng, got.Lng, 1e-9)
	}
}
