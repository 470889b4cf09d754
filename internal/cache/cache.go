// Package cache keeps computed report payloads for a short time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "fixed-assets:reports:"

// ReportCache stores JSON encoded report payloads. Get reports false on a miss.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	InvalidateAll(ctx context.Context) error
}

// Key builds a cache key from a report name and its parameters.
func Key(report string, parts ...string) string {
	return keyPrefix + report + ":" + strings.Join(parts, ":")
}

// New connects to redis when REDIS_ADDR is set and falls back to a no-op cache otherwise.
func New(ctx context.Context, cfg config.RedisOptions, logger *zap.Logger) (ReportCache, func() error, error) {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not set, report caching disabled")
		return Noop{}, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Report cache connected", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return NewRedisCache(client, cfg.TTL, logger), client.Close, nil
}

type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get key: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to deserialize value: %w", err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize value: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// InvalidateAll drops every cached report.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan report keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete report keys: %w", err)
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.logger.Debug("Report cache invalidated", zap.Int("keys", removed))
	return nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, interface{}) error         { return nil }
func (Noop) InvalidateAll(context.Context) error                    { return nil }
