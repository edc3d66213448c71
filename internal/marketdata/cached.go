package marketdata

import (
	"context"
	"time"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/redis"
)

// CachedProvider puts a Redis JSON cache in front of another provider.
// Cache errors are logged and bypassed; a disabled Redis client turns this
// into a pass-through.
type CachedProvider struct {
	inner  Provider
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps inner
func NewCachedProvider(inner Provider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.Component("marketdata_cache"),
	}
}

// Name returns the wrapped provider name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// Fetch serves from cache, falling back to the wrapped provider
func (p *CachedProvider) Fetch(ctx context.Context, symbol string) (*contracts.InstrumentRecord, error) {
	key := redis.InstrumentKey(p.inner.Name(), symbol)

	var cached contracts.InstrumentRecord
	hit, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("instrument cache read failed")
	}
	if hit {
		return &cached, nil
	}

	rec, err := p.inner.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, rec, p.ttl); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("instrument cache write failed")
	}
	return rec, nil
}

// Candles caches daily bars when the wrapped provider serves them
func (p *CachedProvider) Candles(ctx context.Context, symbol string, days int) ([]Candle, error) {
	src, ok := p.inner.(CandleSource)
	if !ok {
		return nil, ErrNoCandles
	}

	key := redis.CandlesKey(symbol, days)
	var cached []Candle
	if hit, err := p.cache.Get(ctx, key, &cached); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("candle cache read failed")
	} else if hit {
		return cached, nil
	}

	candles, err := src.Candles(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, candles, redis.TTLLong); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("candle cache write failed")
	}
	return candles, nil
}
