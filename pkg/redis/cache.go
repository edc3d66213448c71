package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if IsNil(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // 시세
	TTLMedium = 10 * time.Minute // 종목 스냅샷
	TTLLong   = 1 * time.Hour    // 뉴스 감성
	TTLDaily  = 24 * time.Hour   // 일봉
)

// Common cache key generators

// InstrumentKey keys a provider's instrument snapshot
func InstrumentKey(provider, symbol string) string {
	return fmt.Sprintf("instrument:%s:%s", provider, strings.ToUpper(symbol))
}

// CandlesKey keys daily closes for a symbol and lookback
func CandlesKey(symbol string, days int) string {
	return fmt.Sprintf("candles:%s:%d", strings.ToUpper(symbol), days)
}

// SentimentKey keys a sentiment report for a symbol on a day
func SentimentKey(symbol, date string) string {
	return fmt.Sprintf("sentiment:%s:%s", strings.ToUpper(symbol), date)
}

// SessionKey keys a client session
func SessionKey(id string) string {
	return "session:" + id
}
