package marketdata

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/internal/lexicon"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/tracing"
)

// UniverseBuilder fetches the candidate records for an intent
// ⭐ SSOT: 유니버스 생성 (심볼 목록 → 병렬 조회 → 누락 기록)
type UniverseBuilder struct {
	provider    Provider
	lex         *lexicon.Lexicon
	concurrency int
	timeout     time.Duration
	logger      *logger.Logger
}

// Compile-time interface check
var _ contracts.UniverseSource = (*UniverseBuilder)(nil)

// NewUniverseBuilder creates a builder
func NewUniverseBuilder(provider Provider, lex *lexicon.Lexicon, concurrency int, timeout time.Duration, log *logger.Logger) *UniverseBuilder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &UniverseBuilder{
		provider:    provider,
		lex:         lex,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      log.Component("universe"),
	}
}

// Build fetches the lexicon universe for intent's sectors (all symbols when
// none). Failed symbols are excluded and listed in Universe.Missing. Output
// order follows the configured symbol order.
func (b *UniverseBuilder) Build(ctx context.Context, intent contracts.Intent) (*contracts.Universe, error) {
	return b.BuildSymbols(ctx, b.lex.SymbolsFor(intent.Sectors))
}

// BuildSymbols fetches symbols with bounded concurrency
func (b *UniverseBuilder) BuildSymbols(ctx context.Context, symbols []string) (*contracts.Universe, error) {
	ctx, span := tracing.StartSpan(ctx, "universe.Build",
		attribute.String("provider", b.provider.Name()),
		attribute.Int("symbols", len(symbols)),
	)
	defer span.End()

	started := time.Now()
	slots := make([]*contracts.InstrumentRecord, len(symbols))
	missing := make(map[string]string)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, sym := range symbols {
		g.Go(func() error {
			rec, err := b.fetchOne(gctx, sym)
			if err != nil {
				mu.Lock()
				missing[sym] = reason(err)
				mu.Unlock()
				return nil
			}
			slots[i] = rec
			return nil
		})
	}
	_ = g.Wait() // 개별 실패는 Missing 으로만 기록

	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	universe := &contracts.Universe{
		Records: make([]contracts.InstrumentRecord, 0, len(symbols)),
		AsOf:    time.Now().UTC(),
	}
	for _, rec := range slots {
		if rec != nil {
			universe.Records = append(universe.Records, *rec)
		}
	}
	if len(missing) > 0 {
		universe.Missing = missing
	}

	log := b.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"provider":    b.provider.Name(),
		"requested":   len(symbols),
		"fetched":     len(universe.Records),
		"missing":     len(missing),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	if len(missing) > 0 {
		log.WithField("missing_symbols", missing).Warn("universe built with missing symbols")
	} else {
		log.Info("universe built")
	}

	span.SetAttributes(attribute.Int("fetched", len(universe.Records)), attribute.Int("missing", len(missing)))
	return universe, nil
}

func (b *UniverseBuilder) fetchOne(ctx context.Context, symbol string) (*contracts.InstrumentRecord, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	rec, err := b.provider.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// 섹터 미제공/미확인 시 렉시콘 섹터로 보완 (Industry 는 유지)
	if _, ok := b.lex.CanonicalSector(rec.Sector); !ok {
		if s := b.lex.SectorOfSymbol(symbol); s != "" {
			rec.Sector = s
		}
	}
	return rec, nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return err.Error()
	}
}
