package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/stockpilot/internal/news"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/redis"
)

// Service fetches headlines for a symbol and analyzes them, caching the
// report per symbol and day
type Service struct {
	source      news.Source
	analyzer    *Analyzer
	cache       *redis.Cache
	maxArticles int
	logger      *logger.Logger
}

// NewService creates a sentiment service
func NewService(source news.Source, analyzer *Analyzer, cache *redis.Cache, maxArticles int, log *logger.Logger) *Service {
	return &Service{
		source:      source,
		analyzer:    analyzer,
		cache:       cache,
		maxArticles: maxArticles,
		logger:      log.Component("sentiment"),
	}
}

// Report returns the sentiment report for symbol. An error means no news
// source could be reached.
func (s *Service) Report(ctx context.Context, symbol string) (*Report, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	key := redis.SentimentKey(symbol, time.Now().UTC().Format("2006-01-02"))

	var cached Report
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("sentiment cache read failed")
	} else if hit {
		return &cached, nil
	}

	articles, err := s.source.Fetch(ctx, symbol, s.maxArticles)
	if err != nil {
		return nil, fmt.Errorf("fetch news %s: %w", symbol, err)
	}

	report := s.analyzer.Analyze(ctx, symbol, articles)

	if err := s.cache.Set(ctx, key, report, redis.TTLLong); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("sentiment cache write failed")
	}
	return report, nil
}
