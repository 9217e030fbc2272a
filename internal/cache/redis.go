// Package cache keeps prediction results in Redis. Every operation fails open:
// an unreachable Redis turns the cache into a no-op, never an error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"jobfit/internal/config"
	apperrors "jobfit/internal/errors"
)

// Redis is a fail-open prediction cache.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *apperrors.Logger

	warnedUnavailable atomic.Bool
	hits              atomic.Int64
	misses            atomic.Int64
	failures          atomic.Int64
}

// NewRedis connects and pings once. When Redis cannot be reached the returned
// cache bypasses itself for its whole lifetime.
func NewRedis(ctx context.Context, cfg config.CacheConfig, logger *apperrors.Logger) *Redis {
	r := &Redis{prefix: cfg.KeyPrefix, ttl: cfg.TTL, logger: logger}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		r.warnUnavailableOnce(err)
		_ = client.Close()
		return r
	}

	r.client = client
	if logger != nil {
		logger.Info("Prediction cache connected", "address", cfg.Address, "db", cfg.DB, "ttl", cfg.TTL.String())
	}
	return r
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r == nil || r.logger == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("Redis unavailable, bypassing prediction cache", "error", err.Error())
	}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

// Get returns cached probabilities. Any failure is reported as a miss.
func (r *Redis) Get(ctx context.Context, key string) ([]float64, bool) {
	if r.isUnavailable() {
		return nil, false
	}
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.failures.Add(1)
			r.warnUnavailableOnce(err)
		}
		r.misses.Add(1)
		return nil, false
	}

	var probs []float64
	if err := json.Unmarshal(b, &probs); err != nil {
		r.failures.Add(1)
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return probs, true
}

// Set stores probabilities with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, probabilities []float64) {
	if r.isUnavailable() {
		return
	}
	b, err := json.Marshal(probabilities)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.key(key), b, r.ttl).Err(); err != nil {
		r.failures.Add(1)
		r.warnUnavailableOnce(err)
	}
}

// Purge deletes every entry whose key starts with keyPrefix, e.g. a retired
// cache namespace.
func (r *Redis) Purge(ctx context.Context, keyPrefix string) (int, error) {
	if r.isUnavailable() {
		return 0, nil
	}
	deleted := 0
	iter := r.client.Scan(ctx, 0, r.key(keyPrefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.failures.Add(1)
			continue
		}
		deleted++
	}
	return deleted, iter.Err()
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return errors.New("redis unavailable")
	}
	return r.client.Ping(ctx).Err()
}

// Stats reports hit and failure counters.
func (r *Redis) Stats() map[string]any {
	if r == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled":   true,
		"available": !r.isUnavailable(),
		"hits":      r.hits.Load(),
		"misses":    r.misses.Load(),
		"failures":  r.failures.Load(),
	}
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}
