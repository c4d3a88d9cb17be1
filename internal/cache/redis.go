// Package cache publishes the latest snapshot to Redis so other processes
// can read it without going through the API.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CoinSentinel/internal/model"

	"github.com/redis/go-redis/v9"
)

// Cache is a snapshot publisher holding a connection.
type Cache interface {
	Name() string
	Publish(ctx context.Context, s model.Snapshot) error
	Close() error
}

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(addr, password string, db int, ttl time.Duration) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisAdapter{
		client: client,
		ttl:    ttl,
	}, nil
}

func latestKey(symbol string) string {
	return "latest:" + symbol
}

func (a *RedisAdapter) Name() string { return "redis" }

// Publish stores the snapshot under latest:<symbol>. Snapshots without a
// price are skipped so a cold start does not overwrite a good value.
func (a *RedisAdapter) Publish(ctx context.Context, s model.Snapshot) error {
	if !s.HasPrice {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := a.client.Set(ctx, latestKey(s.Symbol), data, a.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set latest snapshot in redis: %w", err)
	}
	return nil
}

func (a *RedisAdapter) Close() error {
	return a.client.Close()
}

// Noop stands in when no Redis address is configured.
type Noop struct{}

func (Noop) Name() string                                  { return "noop-cache" }
func (Noop) Publish(context.Context, model.Snapshot) error { return nil }
func (Noop) Close() error                                  { return nil }
