package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"itinerary-planner/internal/models"
)

type distanceCacheRepository struct {
	store *Store
}

const upsertDistanceQuery = `INSERT OR REPLACE INTO distance_cache
	(origin_lat, origin_lng, dest_lat, dest_lng, mode, distance_km, duration_min)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

func (r *distanceCacheRepository) Get(ctx context.Context, origin, dest models.Coordinates, mode models.TravelMode) (*models.DistanceCacheEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT origin_lat, origin_lng, dest_lat, dest_lng, mode, distance_km, duration_min
	          FROM distance_cache
	          WHERE origin_lat = ? AND origin_lng = ? AND dest_lat = ? AND dest_lng = ? AND mode = ?`

	o, d := origin.Rounded(), dest.Rounded()

	var entry models.DistanceCacheEntry
	var modeStr string
	err := r.store.db.QueryRowContext(ctx, query, o.Lat, o.Lng, d.Lat, d.Lng, string(mode.OrDefault())).Scan(
		&entry.Origin.Lat, &entry.Origin.Lng,
		&entry.Destination.Lat, &entry.Destination.Lng,
		&modeStr,
		&entry.DistanceKm, &entry.DurationMin,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get distance cache entry: %w", err)
	}

	entry.Mode = models.TravelMode(modeStr)
	return &entry, nil
}

func (r *distanceCacheRepository) Set(ctx context.Context, entry *models.DistanceCacheEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, d := entry.Origin.Rounded(), entry.Destination.Rounded()

	_, err := r.store.db.ExecContext(ctx, upsertDistanceQuery,
		o.Lat, o.Lng, d.Lat, d.Lng, string(entry.Mode.OrDefault()),
		entry.DistanceKm, entry.DurationMin,
	)
	if err != nil {
		return fmt.Errorf("failed to set distance cache entry: %w", err)
	}

	return nil
}

func (r *distanceCacheRepository) SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertDistanceQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		o, d := entry.Origin.Rounded(), entry.Destination.Rounded()
		_, err := stmt.ExecContext(ctx, o.Lat, o.Lng, d.Lat, d.Lng, string(entry.Mode.OrDefault()),
			entry.DistanceKm, entry.DurationMin)
		if err != nil {
			return fmt.Errorf("failed to insert batch entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *distanceCacheRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := r.store.db.ExecContext(ctx, "DELETE FROM distance_cache"); err != nil {
		return fmt.Errorf("failed to clear distance cache: %w", err)
	}

	return nil
}

func (r *distanceCacheRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM distance_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count distance cache entries: %w", err)
	}
	return n, nil
}
