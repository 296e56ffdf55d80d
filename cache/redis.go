// Package cache keeps merged category results in Redis between requests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robertmeta/newswire/model"
)

// DefaultTTL is how long a merged category stays fresh.
const DefaultTTL = 2 * time.Minute

const keyPrefix = "newswire:feed:"

// Redis is an aggregation cache backed by a Redis server. Cache failures are
// logged and treated as misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Dial connects to the Redis server at addr. An unreachable server is logged,
// not fatal: go-redis reconnects on later commands.
func Dial(ctx context.Context, addr string, ttl time.Duration, logger *slog.Logger) *Redis {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis ping failed", slog.String("addr", addr), slog.String("error", err.Error()))
	}

	return NewRedis(client, ttl, logger)
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Key returns the Redis key of a category.
func Key(category string) string {
	return keyPrefix + category
}

// Get returns the cached items of category.
func (r *Redis) Get(ctx context.Context, category string) ([]model.FeedItem, bool) {
	data, err := r.client.Get(ctx, Key(category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("Cache read failed", slog.String("category", category), slog.String("error", err.Error()))
		return nil, false
	}

	var items []model.FeedItem
	if err := json.Unmarshal(data, &items); err != nil {
		r.logger.Warn("Discarding corrupt cache entry", slog.String("category", category), slog.String("error", err.Error()))
		return nil, false
	}
	return items, true
}

// Set stores the items of category for the configured TTL.
func (r *Redis) Set(ctx context.Context, category string, items []model.FeedItem) {
	if err := r.set(ctx, category, items); err != nil {
		r.logger.Warn("Cache write failed", slog.String("category", category), slog.String("error", err.Error()))
	}
}

func (r *Redis) set(ctx context.Context, category string, items []model.FeedItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	if err := r.client.Set(ctx, Key(category), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store items: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
