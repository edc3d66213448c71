package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpilot/internal/alerts"
	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
)

type fakeFetcher struct {
	universe *contracts.Universe
	err      error
	got      []string
}

func (f *fakeFetcher) BuildSymbols(_ context.Context, symbols []string) (*contracts.Universe, error) {
	f.got = symbols
	return f.universe, f.err
}

func TestUniverseWarmupJob(t *testing.T) {
	symbols := []string{"AAPL", "XYZ"}

	tests := []struct {
		name    string
		fetcher *fakeFetcher
		wantErr bool
	}{
		{
			name: "partial",
			fetcher: &fakeFetcher{universe: &contracts.Universe{
				Records: []contracts.InstrumentRecord{{Symbol: "AAPL"}},
				Missing: map[string]string{"XYZ": "timeout"},
			}},
		},
		{
			name:    "all failed",
			fetcher: &fakeFetcher{universe: &contracts.Universe{Missing: map[string]string{"AAPL": "x", "XYZ": "x"}}},
			wantErr: true,
		},
		{
			name:    "canceled",
			fetcher: &fakeFetcher{err: context.Canceled},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewUniverseWarmupJob(tt.fetcher, symbols, "", logger.Nop())
			assert.Equal(t, "0 */15 * * * *", job.Schedule())

			err := job.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, symbols, tt.fetcher.got)
		})
	}
}

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestHistoryRetentionJob(t *testing.T) {
	now := time.Date(2026, 3, 31, 3, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}
	job := NewHistoryRetentionJob(pruner, 30, logger.Nop())
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC), pruner.cutoff)

	pruner.err = errors.New("db down")
	assert.Error(t, job.Run(context.Background()))

	unlimited := &fakePruner{}
	require.NoError(t, NewHistoryRetentionJob(unlimited, 0, logger.Nop()).Run(context.Background()))
	assert.True(t, unlimited.cutoff.IsZero())
}

type countingSweeper struct {
	calls   int
	removed int
}

func (c *countingSweeper) Sweep() int {
	c.calls++
	return c.removed
}

func TestSessionSweepJob(t *testing.T) {
	sweeper := &countingSweeper{removed: 4}
	job := NewSessionSweepJob(sweeper, logger.Nop())
	assert.Equal(t, "session_sweep", job.Name())
	assert.Equal(t, "0 */10 * * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, sweeper.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
	assert.Equal(t, 1, sweeper.calls)
}

type fakeAlertChecker struct {
	res alerts.CheckResult
	err error
}

func (f *fakeAlertChecker) Check(context.Context) (alerts.CheckResult, error) {
	return f.res, f.err
}

func TestPriceAlertJob(t *testing.T) {
	job := NewPriceAlertJob(&fakeAlertChecker{res: alerts.CheckResult{Pending: 2, Symbols: 1, Triggered: 1}}, "", logger.Nop())
	assert.Equal(t, "price_alert_check", job.Name())
	assert.Equal(t, "0 */5 * * * *", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))

	custom := NewPriceAlertJob(&fakeAlertChecker{err: errors.New("db down")}, "0 * * * * *", logger.Nop())
	assert.Equal(t, "0 * * * * *", custom.Schedule())
	assert.Error(t, custom.Run(context.Background()))
}

func TestPriceAlertJob_WithChecker(t *testing.T) {
	ctx := context.Background()
	store := alerts.NewMemoryStore()
	require.NoError(t, store.Create(ctx, &alerts.Alert{SessionID: "s1", Symbol: "AAPL", TargetPrice: 180, Direction: alerts.Above}))

	fetcher := &fakeFetcher{universe: &contracts.Universe{
		Records: []contracts.InstrumentRecord{{Symbol: "AAPL", Price: contracts.Float(190)}},
	}}
	hub := alerts.NewHub(logger.Nop())
	defer hub.Close()

	job := NewPriceAlertJob(alerts.NewChecker(store, fetcher, hub, logger.Nop()), "", logger.Nop())
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, []string{"AAPL"}, fetcher.got)

	n, err := store.CountActive(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
