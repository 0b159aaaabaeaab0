package distance

import (
	"math"

	"itinerary-planner/internal/models"
)

// EarthRadiusKm is the mean radius of Earth in kilometers
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two points in kilometers.
// Callers must reject out-of-range coordinates first.
func Haversine(a, b models.Coordinates) float64 {
	if a == b {
		return 0
	}

	lat1 := degToRad(a.Lat)
	lat2 := degToRad(b.Lat)
	dLat := lat2 - lat1
	dLng := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
