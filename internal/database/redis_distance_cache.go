package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"itinerary-planner/internal/models"
)

// DefaultRedisKeyPrefix namespaces distance entries inside a shared Redis
const DefaultRedisKeyPrefix = "itinerary:distance:"

// RedisConfig holds connection settings for the shared distance tier
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// RedisDistanceCache stores provider results in Redis so several planner
// instances can share them. Entries expire after TTL (0 = never).
type RedisDistanceCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisClient opens and pings a Redis connection
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}
	return client, nil
}

// NewRedisDistanceCache wraps an existing client
func NewRedisDistanceCache(client *redis.Client, ttl time.Duration, prefix string) *RedisDistanceCache {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisDistanceCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisDistanceCache) key(origin, dest models.Coordinates, mode models.TravelMode) string {
	return c.prefix + models.DistanceCacheKey(origin, dest, mode)
}

func (c *RedisDistanceCache) Get(ctx context.Context, origin, dest models.Coordinates, mode models.TravelMode) (*models.DistanceCacheEntry, error) {
	raw, err := c.client.Get(ctx, c.key(origin, dest, mode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get distance cache entry: %w", err)
	}

	var entry models.DistanceCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode distance cache entry: %w", err)
	}
	return &entry, nil
}

func (c *RedisDistanceCache) Set(ctx context.Context, entry *models.DistanceCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode distance cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(entry.Origin, entry.Destination, entry.Mode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set distance cache entry: %w", err)
	}
	return nil
}

func (c *RedisDistanceCache) SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for i := range entries {
		data, err := json.Marshal(&entries[i])
		if err != nil {
			return fmt.Errorf("failed to encode distance cache entry: %w", err)
		}
		pipe.Set(ctx, c.key(entries[i].Origin, entries[i].Destination, entries[i].Mode), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set distance cache batch: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix; other keys in the database are untouched
func (c *RedisDistanceCache) Clear(ctx context.Context) error {
	keys, err := c.scanKeys(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += 500 {
		end := min(start+500, len(keys))
		if err := c.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("failed to clear distance cache: %w", err)
		}
	}
	return nil
}

func (c *RedisDistanceCache) Count(ctx context.Context) (int, error) {
	keys, err := c.scanKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (c *RedisDistanceCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisDistanceCache) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan distance cache keys: %w", err)
	}
	return keys, nil
}
