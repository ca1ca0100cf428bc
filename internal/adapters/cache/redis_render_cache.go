package cache

import (
	"context"
	"errors"
	"time"

	"delivery-analytics-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const redisKeyPrefix = "dashboard:render:"

// Redis backed cache for rendered chart payloads, shared across server replicas.
type RedisRenderCache struct {
	Client redis.UniversalClient
}

func NewRedisRenderCache(client redis.UniversalClient) *RedisRenderCache {
	return &RedisRenderCache{Client: client}
}

func (r *RedisRenderCache) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "render.cache.redis.Get")(&err)

	b, err := r.Client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "redis render cache: get")
	}
	return b, true, nil
}

func (r *RedisRenderCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.Client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		return eris.Wrap(err, "redis render cache: set")
	}
	return nil
}
