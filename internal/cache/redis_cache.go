package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"

	"luxepos/internal/domain"
)

type RedisMarketCache struct {
	client *redis.Client
}

func NewRedisMarketCache(client *redis.Client) *RedisMarketCache {
	return &RedisMarketCache{client: client}
}

func (c *RedisMarketCache) Get(ctx context.Context, key string) (*domain.MarketSnapshot, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get market snapshot")
	}

	var snap domain.MarketSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, false, errors.Wrap(err, "decode market snapshot")
	}
	return &snap, true, nil
}

func (c *RedisMarketCache) Set(ctx context.Context, key string, value *domain.MarketSnapshot, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encode market snapshot")
	}
	return errors.Wrap(c.client.Set(ctx, key, payload, ttl).Err(), "redis set market snapshot")
}
