package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpilot/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), KeyPrefix)
	cfg := ScreenRateLimit("sess-1", 30)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 30, remaining)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), KeyPrefix)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found, "expected cache miss when Redis disabled")
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestScreenRateLimit(t *testing.T) {
	cfg := ScreenRateLimit("abc", 10)
	assert.Equal(t, "screen:abc", cfg.Key)
	assert.Equal(t, 10, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"InstrumentKey", InstrumentKey("finnhub", "nvda"), "instrument:finnhub:NVDA"},
		{"CandlesKey", CandlesKey("aapl", 200), "candles:AAPL:200"},
		{"SentimentKey", SentimentKey("msft", "2026-01-15"), "sentiment:MSFT:2026-01-15"},
		{"SessionKey", SessionKey("5f0c"), "session:5f0c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestPubSub_Disabled(t *testing.T) {
	ps := NewPubSub(Disabled(), KeyPrefix)
	ctx := context.Background()

	assert.False(t, ps.Enabled())
	require.NoError(t, ps.Publish(ctx, AlertsChannel, map[string]string{"symbol": "AAPL"}))

	called := false
	require.NoError(t, ps.Subscribe(ctx, AlertsChannel, func([]byte) { called = true }))
	assert.False(t, called)
	assert.Equal(t, "stockpilot:alerts:triggered", ps.channel(AlertsChannel))
}
