package database

import (
	"context"

	"itinerary-planner/internal/models"
)

// DistanceCacheRepository is the persistent tier behind the in-memory estimate cache.
// Get returns (nil, nil) on a miss.
type DistanceCacheRepository interface {
	Get(ctx context.Context, origin, dest models.Coordinates, mode models.TravelMode) (*models.DistanceCacheEntry, error)
	Set(ctx context.Context, entry *models.DistanceCacheEntry) error
	SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// HealthChecker is implemented by stores that hold a live connection
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
