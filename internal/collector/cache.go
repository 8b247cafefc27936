package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"MarketScout/internal/model"
)

// RedisCache serves daily bars from redis and fills it on a miss. Redis
// failures degrade to calling the upstream Fetcher.
type RedisCache struct {
	inner  Fetcher
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache wraps inner with a redis cache.
func NewRedisCache(inner Fetcher, client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{inner: inner, client: client, ttl: ttl, prefix: "marketscout:"}
}

func (c *RedisCache) Name() string { return c.inner.Name() }

func (c *RedisCache) key(symbol string, days int) string {
	return fmt.Sprintf("%sbars:%s:%s:%d", c.prefix, c.inner.Name(), symbol, days)
}

func (c *RedisCache) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	key := c.key(symbol, days)
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bars []model.OHLCV
		if err := json.Unmarshal(data, &bars); err == nil {
			return bars, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn().Err(err).Str("key", key).Msg("price cache read failed")
	}

	bars, err := c.inner.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(bars); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("price cache write failed")
		}
	}
	return bars, nil
}
