package marketdata

import (
	"fmt"

	"github.com/wonny/stockpilot/pkg/config"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/redis"
)

// Sources bundles the configured snapshot provider and candle source
type Sources struct {
	Provider Provider
	Candles  CandleSource
}

// New builds the providers selected by cfg, each behind the Redis cache.
// Finnhub daily candles are a paid endpoint, so candles come from Yahoo
// unless the static fixture is in use.
func New(cfg config.MarketDataConfig, cache *redis.Cache, log *logger.Logger) (*Sources, error) {
	switch cfg.Provider {
	case "finnhub":
		fh := NewFinnhubProvider(cfg.FinnhubKey, cfg.RatePerMin, log)
		return &Sources{
			Provider: NewCachedProvider(fh, cache, cfg.CacheTTL, log),
			Candles:  NewCachedProvider(NewYahooProvider(log), cache, cfg.CacheTTL, log),
		}, nil

	case "yahoo":
		y := NewCachedProvider(NewYahooProvider(log), cache, cfg.CacheTTL, log)
		return &Sources{Provider: y, Candles: y}, nil

	case "static":
		sp, err := LoadStaticProvider(cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		// 픽스처는 캐시 불필요
		return &Sources{Provider: sp, Candles: sp}, nil

	default:
		return nil, fmt.Errorf("unknown market data provider %q", cfg.Provider)
	}
}
