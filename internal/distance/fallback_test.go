package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"itinerary-planner/internal/models"
)

func TestFallbackEstimateSpeeds(t *testing.T) {
	origin := models.Coordinates{Lat: 0, Lng: 0}

	tests := []struct {
		name      string
		dest      models.Coordinates
		mode      models.TravelMode
		wantSpeed float64
	}{
		{"short drive uses city speed", models.Coordinates{Lat: 0.1, Lng: 0}, models.ModeDriving, CitySpeedKmh},
		{"medium drive uses default speed", models.Coordinates{Lat: 0.5, Lng: 0}, models.ModeDriving, DefaultSpeedKmh},
		{"long drive uses highway speed", models.Coordinates{Lat: 1, Lng: 0}, models.ModeDriving, HighwaySpeedKmh},
		{"unset mode drives", models.Coordinates{Lat: 0.1, Lng: 0}, "", CitySpeedKmh},
		{"walking", models.Coordinates{Lat: 0.1, Lng: 0}, models.ModeWalking, WalkingSpeedKmh},
		{"cycling ignores distance bands", models.Coordinates{Lat: 1, Lng: 0}, models.ModeCycling, CyclingSpeedKmh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := FallbackEstimate(origin, tt.dest, tt.mode)
			road := Haversine(origin, tt.dest) * RoadFactor

			assert.True(t, est.IsFallback)
			assert.InDelta(t, road, est.DistanceKm, 1e-9)
			assert.InDelta(t, road/tt.wantSpeed*60, est.DurationMin, 1e-9)
		})
	}
}

func TestFallbackEstimateFiftyKilometres(t *testing.T) {
	// 50 km great-circle → 70 km road at 40 km/h → 105 minutes
	dest := models.Coordinates{Lat: 50 / (EarthRadiusKm * 3.141592653589793 / 180), Lng: 0}
	est := FallbackEstimate(models.Coordinates{}, dest, models.ModeDriving)

	assert.InDelta(t, 70.0, est.DistanceKm, 0.01)
	assert.InDelta(t, 105.0, est.DurationMin, 0.05)
}

func TestFallbackEstimateSamePoint(t *testing.T) {
	p := models.Coordinates{Lat: 48.85, Lng: 2.35}
	est := FallbackEstimate(p, p, models.ModeDriving)

	assert.Equal(t, 0.0, est.DistanceKm)
	assert.Equal(t, 0.0, est.DurationMin)
}
