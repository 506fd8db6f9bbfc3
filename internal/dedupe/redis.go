// ABOUTME: Redis-backed dedupe guard for multi-instance deployments.
// ABOUTME: Uses SET NX with TTL so all webhook replicas share one seen-set.

package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the shared guard.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisGuard records seen keys in Redis so that the duplicate window is
// shared across bot instances. Keys expire server-side after the TTL.
type RedisGuard struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ Guard = (*RedisGuard)(nil)

// NewRedisGuard connects to Redis and verifies the connection with a ping.
func NewRedisGuard(ctx context.Context, cfg RedisConfig, ttl time.Duration) (*RedisGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisGuard{
		client:    client,
		keyPrefix: "dedupe:update:",
		ttl:       ttl,
	}, nil
}

// Seen marks key via SET NX and reports whether it was already present.
// SET NX is atomic on the server, so concurrent replicas agree on which
// one owns a given update.
func (g *RedisGuard) Seen(ctx context.Context, key string) (bool, error) {
	set, err := g.client.SetNX(ctx, g.keyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return !set, nil
}

// Close closes the underlying Redis connection.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}
