package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/internal/selection"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/tracing"
)

// Stage names reported in RunResult.CompletedStages
const (
	StageInterpret = "interpret"
	StageUniverse  = "universe"
	StageScreen    = "screen"
	StageRecord    = "record"
)

// Orchestrator coordinates one screening request
// ⭐ SSOT: 파이프라인 조율은 여기서만
// Interpret → Universe → Screen → Record
type Orchestrator struct {
	screener *selection.Screener
	universe contracts.UniverseSource
	recorder contracts.QueryRecorder
	logger   *logger.Logger
}

// RunConfig holds the inputs of a single run
type RunConfig struct {
	Query     string
	SessionID string
	Limit     int // 0 = server default
}

// RunResult holds the outcome of a run
type RunResult struct {
	Result          *contracts.ScreenResult
	UniverseSize    int
	CompletedStages []string
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator. recorder may be nil.
func NewOrchestrator(screener *selection.Screener, universe contracts.UniverseSource, recorder contracts.QueryRecorder, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		screener: screener,
		universe: universe,
		recorder: recorder,
		logger:   log.Component("pipeline"),
	}
}

// Run executes the pipeline. Upstream failures become notices on the
// result; an error is returned only when ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	start := time.Now()
	log := o.logger.WithContext(ctx)
	run := &RunResult{CompletedStages: make([]string, 0, 4)}

	log.WithFields(map[string]interface{}{
		"query": config.Query,
		"limit": config.Limit,
	}).Info("Starting screen run")

	// 1. Interpret
	interp := o.screener.Interpret(ctx, config.Query)
	run.CompletedStages = append(run.CompletedStages, StageInterpret)

	// 2. Universe (해석 불가 질의는 시세 조회 생략)
	universe := &contracts.Universe{}
	if interp.Parsed() {
		u, err := o.universe.Build(ctx, interp.Intent)
		if err != nil {
			tracing.RecordError(span, err)
			return run, fmt.Errorf("build universe: %w", err)
		}
		universe = u
		run.UniverseSize = u.Len()
		run.CompletedStages = append(run.CompletedStages, StageUniverse)
	}

	// 3. Screen
	var opts []selection.Option
	if config.Limit > 0 {
		opts = append(opts, selection.WithLimit(config.Limit))
	}
	run.Result = o.screener.Apply(ctx, interp, universe, opts...)
	run.CompletedStages = append(run.CompletedStages, StageScreen)

	// 4. Record (실패해도 결과는 반환)
	if o.recorder != nil && config.SessionID != "" {
		if err := o.recorder.Record(ctx, config.SessionID, config.Query, run.Result); err != nil {
			log.WithError(err).Warn("Failed to record screen query")
		} else {
			run.CompletedStages = append(run.CompletedStages, StageRecord)
		}
	}

	run.Duration = time.Since(start)
	span.SetAttributes(
		attribute.String("screen.status", string(run.Result.Status)),
		attribute.Int("screen.items", len(run.Result.Items)),
	)

	log.WithFields(map[string]interface{}{
		"status":        run.Result.Status,
		"intent_source": run.Result.IntentSource,
		"universe":      run.UniverseSize,
		"matched":       run.Result.TotalMatched,
		"duration":      run.Duration,
	}).Info("Screen run completed")

	return run, nil
}
