package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dispatch:emergency:"

// Cache implements the CacheRepository interface on Redis. Snapshots are
// stored as JSON with a TTL; a miss is reported as ErrEmergencyNotFound so
// callers fall through to the repository.
type Cache struct {
	client *redis.Client
}

// Config holds Redis connection settings
type Config struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// New creates a Redis cache and verifies connectivity
func New(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Get(ctx context.Context, emergencyID string) (*models.Emergency, error) {
	payload, err := c.client.Get(ctx, keyPrefix+emergencyID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrEmergencyNotFound
		}
		return nil, fmt.Errorf("failed to read cached emergency: %w", err)
	}

	var emergency models.Emergency
	if err := json.Unmarshal(payload, &emergency); err != nil {
		return nil, fmt.Errorf("failed to decode cached emergency: %w", err)
	}
	return &emergency, nil
}

func (c *Cache) Set(ctx context.Context, emergencyID string, emergency *models.Emergency, ttlSeconds int) error {
	payload, err := json.Marshal(emergency)
	if err != nil {
		return fmt.Errorf("failed to encode emergency: %w", err)
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if err := c.client.Set(ctx, keyPrefix+emergencyID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache emergency: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, emergencyID string) error {
	if err := c.client.Del(ctx, keyPrefix+emergencyID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached emergency: %w", err)
	}
	return nil
}

// Close releases the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}
