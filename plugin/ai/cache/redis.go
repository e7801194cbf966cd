package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/careerscout/careerscout/internal/observability"
)

// RedisConfig holds the Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache is the shared exact cache tier backed by Redis. A connectivity
// failure on the read path is reported as Unavailable, never as an error,
// so callers always fall through to the authoritative source.
type RedisCache struct {
	rdb     *redis.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRedisCache creates a Redis-backed exact cache and validates the
// connection.
func NewRedisCache(cfg RedisConfig, metrics *observability.Metrics, logger *slog.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}

	return &RedisCache{rdb: rdb, metrics: metrics, logger: logger}, nil
}

// Lookup returns the cached value. Redis expires entries itself, so any
// present key is live.
func (c *RedisCache) Lookup(ctx context.Context, key string) Result {
	prefix := KeyPrefix(key)
	val, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		c.metrics.CacheHit(observability.TierExact, prefix)
		return Result{Status: StatusHit, Value: val}
	case errors.Is(err, redis.Nil):
		c.metrics.CacheMiss(observability.TierExact, prefix)
		return Result{Status: StatusMiss}
	default:
		c.metrics.CacheUnavailable(observability.TierExact)
		c.logger.Warn("exact cache read degraded", "key_prefix", prefix, "error", err)
		return Result{Status: StatusUnavailable}
	}
}

// Set stores the value with the given TTL. Failures are reported but callers
// treat the write as best-effort.
func (c *RedisCache) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, []byte(value), ttl).Err(); err != nil {
		c.metrics.CacheUnavailable(observability.TierExact)
		return errors.Wrap(err, "exact cache write failed")
	}
	c.metrics.CacheWrite(observability.TierExact, KeyPrefix(key))
	return nil
}

// Close releases the client connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

var _ ExactCache = (*RedisCache)(nil)
