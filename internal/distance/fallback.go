package distance

import "itinerary-planner/internal/models"

// RoadFactor inflates great-circle distance to approximate road distance
const RoadFactor = 1.4

// Fallback speeds in km/h
const (
	CitySpeedKmh    = 25.0
	DefaultSpeedKmh = 40.0
	HighwaySpeedKmh = 60.0
	WalkingSpeedKmh = 5.0
	CyclingSpeedKmh = 15.0

	cityThresholdKm    = 20.0
	highwayThresholdKm = 100.0
)

// FallbackEstimate is the deterministic distance/duration model used when no
// routing provider is available or it fails.
func FallbackEstimate(origin, dest models.Coordinates, mode models.TravelMode) Estimate {
	road := Haversine(origin, dest) * RoadFactor
	speed := fallbackSpeed(road, mode)

	return Estimate{
		DistanceKm:  road,
		DurationMin: road / speed * 60,
		IsFallback:  true,
	}
}

func fallbackSpeed(roadKm float64, mode models.TravelMode) float64 {
	switch mode {
	case models.ModeWalking:
		return WalkingSpeedKmh
	case models.ModeCycling:
		return CyclingSpeedKmh
	}

	switch {
	case roadKm < cityThresholdKm:
		return CitySpeedKmh
	case roadKm > highwayThresholdKm:
		return HighwaySpeedKmh
	default:
		return DefaultSpeedKmh
	}
}
