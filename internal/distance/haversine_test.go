package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"itinerary-planner/internal/models"
)

func TestHaversineKnownDistances(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Coordinates
		want float64
	}{
		{"paris to london", models.Coordinates{Lat: 48.8566, Lng: 2.3522}, models.Coordinates{Lat: 51.5074, Lng: -0.1278}, 343.5},
		{"new york to boston", models.Coordinates{Lat: 40.7128, Lng: -74.0060}, models.Coordinates{Lat: 42.3601, Lng: -71.0589}, 306.1},
		{"one degree of latitude", models.Coordinates{Lat: 0, Lng: 0}, models.Coordinates{Lat: 1, Lng: 0}, 111.19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Haversine(tt.a, tt.b), 1.0)
		})
	}
}

func TestHaversineSymmetricAndZero(t *testing.T) {
	points := []models.Coordinates{
		{Lat: 48.8606, Lng: 2.3376},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: -179.9},
		{Lat: 0, Lng: 0},
	}

	for _, a := range points {
		assert.Equal(t, 0.0, Haversine(a, a))
		for _, b := range points {
			assert.Equal(t, Haversine(a, b), Haversine(b, a))
			assert.GreaterOrEqual(t, Haversine(a, b), 0.0)
		}
	}
}

func TestHaversineAntipodal(t *testing.T) {
	d := Haversine(models.Coordinates{Lat: 0, Lng: 0}, models.Coordinates{Lat: 0, Lng: 180})
	assert.InDelta(t, 20015.1, d, 1.0)
}
