package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/ajitpratap0/riskwise/internal/metrics"
)

const cacheKeyPrefix = "riskwise:market:"

// CachedFetcher wraps a Fetcher with a Redis read-through cache.
// Identical concurrent requests are collapsed into one upstream call even
// when Redis is not configured.
type CachedFetcher struct {
	next  Fetcher
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedFetcher creates a cached fetcher. redisClient may be nil.
func NewCachedFetcher(next Fetcher, redisClient *redis.Client, ttl time.Duration) *CachedFetcher {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &CachedFetcher{
		next:  next,
		redis: redisClient,
		ttl:   ttl,
	}
}

// Fetch implements Fetcher
func (c *CachedFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	key := cacheKeyPrefix + req.Key()

	if body, ok := c.get(ctx, key); ok {
		return body, nil
	}

	// The shared call is detached from any one caller's cancellation; the
	// HTTP client timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		body, err := c.next.Fetch(fetchCtx, req)
		if err != nil {
			return nil, err
		}
		c.set(fetchCtx, key, body)
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug().Str("key", key).Msg("Shared in-flight market-data request")
		}
		return res.Val.([]byte), nil
	}
}

func (c *CachedFetcher) get(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}

	// Use a short timeout for cache operations to prevent blocking
	cacheCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	body, err := c.redis.Get(cacheCtx, key).Bytes()
	switch {
	case err == nil:
		metrics.RecordCacheLookup(metrics.CacheHit)
		log.Debug().Str("key", key).Msg("Cache hit for market data")
		return body, true
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheLookup(metrics.CacheMiss)
	default:
		// Log error but don't fail - cache miss is acceptable
		metrics.RecordCacheLookup(metrics.CacheError)
		log.Debug().Err(err).Str("key", key).Msg("Redis get error - treating as cache miss")
	}
	return nil, false
}

func (c *CachedFetcher) set(ctx context.Context, key string, body []byte) {
	if c.redis == nil {
		return
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := c.redis.Set(cacheCtx, key, body, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache market data")
	}
}

// Clear removes all cached market-data entries
func (c *CachedFetcher) Clear(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	iter := c.redis.Scan(cacheCtx, 0, cacheKeyPrefix+"*", 0).Iterator()
	count := 0
	for iter.Next(cacheCtx) {
		if err := c.redis.Del(cacheCtx, iter.Val()).Err(); err != nil {
			log.Warn().Err(err).Str("key", iter.Val()).Msg("Failed to delete cache key")
			continue
		}
		count++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan error: %w", err)
	}

	log.Info().Int("keys_deleted", count).Msg("Cleared market-data cache")
	return nil
}

// Health checks if the Redis connection is healthy
func (c *CachedFetcher) Health(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.redis.Ping(cacheCtx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
