// Package cache keeps a short-lived copy of the public event listing in
// Redis. The listing is the hottest read in the system and tolerates a little
// staleness; event writes invalidate it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const eventListKey = "events:active"

type Config struct {
	Addr     string
	Password string
	DB       int
	ListTTL  time.Duration
}

type RedisClient struct {
	client  *redis.Client
	listTTL time.Duration
}

func NewRedisClient(cfg Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: rdb, listTTL: cfg.ListTTL}, nil
}

// GetEventList returns the cached listing as raw JSON, or nil on a miss
func (c *RedisClient) GetEventList(ctx context.Context) ([]byte, error) {
	data, err := c.client.Get(ctx, eventListKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, nil
}

// SetEventList stores the rendered listing with the configured TTL
func (c *RedisClient) SetEventList(ctx context.Context, data []byte) error {
	return c.client.Set(ctx, eventListKey, data, c.listTTL).Err()
}

// InvalidateEventList drops the cached listing after an event write
func (c *RedisClient) InvalidateEventList(ctx context.Context) error {
	return c.client.Del(ctx, eventListKey).Err()
}

func (c *RedisClient) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisClient) Close() error {
	return c.client.Close()
}
