package testutil

import (
	"context"
	"math"
	"sync"

	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/models"
)

// MatrixCall tracks a call to the routing provider
type MatrixCall struct {
	Origins      []models.Coordinates
	Destinations []models.Coordinates
	Mode         models.TravelMode
}

// MockRoutingProvider is a deterministic provider for tests.
// It returns scaled Euclidean distances and a 50 km/h duration unless overridden.
type MockRoutingProvider struct {
	mu sync.Mutex

	ScaleFactor float64
	SpeedKmh    float64
	Overrides   map[string]distance.Leg
	Calls       []MatrixCall

	// Err makes every call fail
	Err error
	// Block makes every call wait for its context to be done
	Block bool
	// MaxCoords caps origins plus destinations per call; 0 means no cap
	MaxCoords int
}

func NewMockRoutingProvider() *MockRoutingProvider {
	return &MockRoutingProvider{
		ScaleFactor: 111, // 1 degree ≈ 111km
		SpeedKmh:    50,
		Overrides:   make(map[string]distance.Leg),
	}
}

// SetLeg sets a custom result for a specific origin-destination pair
func (m *MockRoutingProvider) SetLeg(origin, dest models.Coordinates, mode models.TravelMode, distKm, durMin float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Overrides[models.DistanceCacheKey(origin, dest, mode)] = distance.Leg{DistanceKm: distKm, DurationMin: durMin}
}

// SetError switches failure mode on or off
func (m *MockRoutingProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// CallCount returns the number of Matrix calls so far
func (m *MockRoutingProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MaxCoordinates implements distance.CoordinateLimiter
func (m *MockRoutingProvider) MaxCoordinates() int {
	return m.MaxCoords
}

// Matrix implements distance.RoutingProvider
func (m *MockRoutingProvider) Matrix(ctx context.Context, origins, destinations []models.Coordinates, mode models.TravelMode) ([][]distance.Leg, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MatrixCall{
		Origins:      append([]models.Coordinates(nil), origins...),
		Destinations: append([]models.Coordinates(nil), destinations...),
		Mode:         mode,
	})
	err, block := m.Err, m.Block
	if m.MaxCoords > 0 && len(origins)+len(destinations) > m.MaxCoords {
		err = &distance.ErrProviderFailed{Provider: "mock", Reason: "too many coordinates"}
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	legs := make([][]distance.Leg, len(origins))
	for i, o := range origins {
		legs[i] = make([]distance.Leg, len(destinations))
		for j, d := range destinations {
			if leg, ok := m.Overrides[models.DistanceCacheKey(o, d, mode)]; ok {
				legs[i][j] = leg
				continue
			}
			dLat := d.Lat - o.Lat
			dLng := d.Lng - o.Lng
			km := math.Sqrt(dLat*dLat+dLng*dLng) * m.ScaleFactor
			legs[i][j] = distance.Leg{DistanceKm: km, DurationMin: km / m.SpeedKmh * 60}
		}
	}
	return legs, nil
}
