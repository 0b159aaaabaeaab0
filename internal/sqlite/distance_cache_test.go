package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"itinerary-planner/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestDistanceCacheSetAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	origin := models.Coordinates{Lat: 40.7128, Lng: -74.0060}
	dest := models.Coordinates{Lat: 42.3601, Lng: -71.0589}

	err := store.DistanceCache().Set(ctx, &models.DistanceCacheEntry{
		Origin:      origin,
		Destination: dest,
		Mode:        models.ModeDriving,
		DistanceKm:  35,
		DurationMin: 60,
	})
	require.NoError(t, err)

	cached, err := store.DistanceCache().Get(ctx, origin, dest, models.ModeDriving)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 35.0, cached.DistanceKm)
	assert.Equal(t, 60.0, cached.DurationMin)
	assert.Equal(t, models.ModeDriving, cached.Mode)
}

func TestDistanceCacheGetNotFound(t *testing.T) {
	store := setupTestStore(t)

	cached, err := store.DistanceCache().Get(context.Background(),
		models.Coordinates{Lat: 40, Lng: -75}, models.Coordinates{Lat: 41, Lng: -76}, models.ModeDriving)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestDistanceCacheRoundsCoordinates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.DistanceCache().Set(ctx, &models.DistanceCacheEntry{
		Origin:      models.Coordinates{Lat: 40.71280001, Lng: -74.00600001},
		Destination: models.Coordinates{Lat: 42.36010004, Lng: -71.05890002},
		Mode:        models.ModeWalking,
		DistanceKm:  3,
		DurationMin: 40,
	})
	require.NoError(t, err)

	cached, err := store.DistanceCache().Get(ctx,
		models.Coordinates{Lat: 40.7128, Lng: -74.0060},
		models.Coordinates{Lat: 42.3601, Lng: -71.0589},
		models.ModeWalking)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 40.0, cached.DurationMin)
}

func TestDistanceCacheModeIsPartOfKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	origin := models.Coordinates{Lat: 1, Lng: 1}
	dest := models.Coordinates{Lat: 2, Lng: 2}

	require.NoError(t, store.DistanceCache().Set(ctx, &models.DistanceCacheEntry{
		Origin: origin, Destination: dest, Mode: models.ModeDriving, DistanceKm: 150, DurationMin: 140,
	}))
	require.NoError(t, store.DistanceCache().Set(ctx, &models.DistanceCacheEntry{
		Origin: origin, Destination: dest, Mode: models.ModeCycling, DistanceKm: 160, DurationMin: 640,
	}))

	driving, err := store.DistanceCache().Get(ctx, origin, dest, models.ModeDriving)
	require.NoError(t, err)
	cycling, err := store.DistanceCache().Get(ctx, origin, dest, models.ModeCycling)
	require.NoError(t, err)

	require.NotNil(t, driving)
	require.NotNil(t, cycling)
	assert.Equal(t, 140.0, driving.DurationMin)
	assert.Equal(t, 640.0, cycling.DurationMin)
}

func TestDistanceCacheSetOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &models.DistanceCacheEntry{
		Origin: models.Coordinates{Lat: 1, Lng: 1}, Destination: models.Coordinates{Lat: 2, Lng: 2},
		Mode: models.ModeDriving, DistanceKm: 10, DurationMin: 15,
	}
	require.NoError(t, store.DistanceCache().Set(ctx, entry))

	entry.DurationMin = 20
	require.NoError(t, store.DistanceCache().Set(ctx, entry))

	count, err := store.DistanceCache().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cached, err := store.DistanceCache().Get(ctx, entry.Origin, entry.Destination, entry.Mode)
	require.NoError(t, err)
	assert.Equal(t, 20.0, cached.DurationMin)
}

func TestDistanceCacheSetBatchAndClear(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entries := []models.DistanceCacheEntry{
		{Origin: models.Coordinates{Lat: 1, Lng: 1}, Destination: models.Coordinates{Lat: 2, Lng: 2}, Mode: models.ModeDriving, DistanceKm: 10, DurationMin: 15},
		{Origin: models.Coordinates{Lat: 2, Lng: 2}, Destination: models.Coordinates{Lat: 3, Lng: 3}, Mode: models.ModeDriving, DistanceKm: 20, DurationMin: 25},
		{Origin: models.Coordinates{Lat: 3, Lng: 3}, Destination: models.Coordinates{Lat: 1, Lng: 1}, Mode: models.ModeDriving, DistanceKm: 30, DurationMin: 35},
	}

	require.NoError(t, store.DistanceCache().SetBatch(ctx, entries))
	require.NoError(t, store.DistanceCache().SetBatch(ctx, nil))

	count, err := store.DistanceCache().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.DistanceCache().Clear(ctx))

	count, err = store.DistanceCache().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStoreMigratesV1Schema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_version (version INTEGER PRIMARY KEY);
		INSERT INTO schema_version (version) VALUES (1);
		CREATE TABLE distance_cache (
			origin_lat REAL NOT NULL, origin_lng REAL NOT NULL,
			dest_lat REAL NOT NULL, dest_lng REAL NOT NULL,
			distance_meters REAL NOT NULL, duration_secs REAL NOT NULL,
			PRIMARY KEY (origin_lat, origin_lng, dest_lat, dest_lng)
		);
		INSERT INTO distance_cache VALUES (1, 1, 2, 2, 1000, 60);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := New(dbPath, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	count, err := store.DistanceCache().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.HealthCheck(context.Background()))
	assert.Equal(t, dbPath, store.GetDBPath())
}
