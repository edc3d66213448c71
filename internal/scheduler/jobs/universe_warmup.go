package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
)

// SymbolFetcher builds a universe for an explicit symbol list
type SymbolFetcher interface {
	BuildSymbols(ctx context.Context, symbols []string) (*contracts.Universe, error)
}

// UniverseWarmupJob fetches every lexicon symbol through the cached
// provider so interactive screens hit a warm cache
type UniverseWarmupJob struct {
	fetcher  SymbolFetcher
	symbols  []string
	schedule string
	logger   *logger.Logger
}

// NewUniverseWarmupJob creates a new warmup job
func NewUniverseWarmupJob(fetcher SymbolFetcher, symbols []string, schedule string, log *logger.Logger) *UniverseWarmupJob {
	if schedule == "" {
		schedule = "0 */15 * * * *"
	}
	return &UniverseWarmupJob{
		fetcher:  fetcher,
		symbols:  symbols,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *UniverseWarmupJob) Name() string {
	return "universe_warmup"
}

// Schedule returns the cron schedule
func (j *UniverseWarmupJob) Schedule() string {
	return j.schedule
}

// Run fetches all symbols. Fails only when nothing could be fetched.
func (j *UniverseWarmupJob) Run(ctx context.Context) error {
	u, err := j.fetcher.BuildSymbols(ctx, j.symbols)
	if err != nil {
		return fmt.Errorf("warm universe: %w", err)
	}
	if len(j.symbols) > 0 && u.Len() == 0 {
		return fmt.Errorf("warm universe: all %d symbols failed", len(j.symbols))
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.symbols),
		"fetched": u.Len(),
		"missing": len(u.Missing),
	}).Info("Universe cache warmed")
	return nil
}
