package market

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"luxepos/internal/cache"
	"luxepos/internal/domain"
)

const snapshotCacheKey = "luxe:market:snapshot"

// CachedFeed serves snapshots from the cache while they are fresh and
// falls back to the wrapped feed otherwise. Cache failures never fail a
// read.
type CachedFeed struct {
	feed  PriceFeed
	cache cache.MarketCache
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewCachedFeed(feed PriceFeed, c cache.MarketCache, ttl time.Duration, log logrus.FieldLogger) *CachedFeed {
	if feed == nil {
		panic("market: nil price feed")
	}
	if c == nil {
		c = cache.NoopMarketCache{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedFeed{feed: feed, cache: c, ttl: ttl, log: log.WithField("component", "market")}
}

func (f *CachedFeed) Current(ctx context.Context) (domain.MarketSnapshot, error) {
	if f.ttl > 0 {
		cached, ok, err := f.cache.Get(ctx, snapshotCacheKey)
		if err != nil {
			f.log.WithError(err).Warn("market cache read failed")
		} else if ok {
			return *cached, nil
		}
	}

	snap, err := f.feed.Current(ctx)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	if f.ttl > 0 {
		if err := f.cache.Set(ctx, snapshotCacheKey, &snap, f.ttl); err != nil {
			f.log.WithError(err).Warn("market cache write failed")
		}
	}
	return snap, nil
}
