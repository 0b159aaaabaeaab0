package distance

import (
	"context"
	"fmt"

	"itinerary-planner/internal/models"
)

// Leg is one provider-sourced origin→destination measurement
type Leg struct {
	DistanceKm  float64
	DurationMin float64
}

// RoutingProvider is an external routing engine able to return a distance/duration matrix.
// Result rows follow origins and columns follow destinations.
type RoutingProvider interface {
	Matrix(ctx context.Context, origins, destinations []models.Coordinates, mode models.TravelMode) ([][]Leg, error)
}

// CoordinateLimiter is implemented by providers that cap how many coordinates
// (origins plus destinations) one matrix request may carry
type CoordinateLimiter interface {
	MaxCoordinates() int
}

// ErrProviderFailed is returned when the routing provider cannot produce a matrix
type ErrProviderFailed struct {
	Provider string
	Reason   string
}

func (e *ErrProviderFailed) Error() string {
	return fmt.Sprintf("%s provider failed: %s", e.Provider, e.Reason)
}
