package cache

import (
	"context"
	"time"

	"luxepos/internal/domain"
)

type MarketCache interface {
	Get(ctx context.Context, key string) (*domain.MarketSnapshot, bool, error)
	Set(ctx context.Context, key string, value *domain.MarketSnapshot, ttl time.Duration) error
}

type NoopMarketCache struct{}

func (NoopMarketCache) Get(_ context.Context, _ string) (*domain.MarketSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopMarketCache) Set(_ context.Context, _ string, _ *domain.MarketSnapshot, _ time.Duration) error {
	return nil
}
