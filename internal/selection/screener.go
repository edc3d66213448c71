package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
)

// ErrNoInterpreter is returned by Screen when the screener was built without one
var ErrNoInterpreter = errors.New("screener has no interpreter")

// Screener turns a query and a universe into a ranked ScreenResult
// ⭐ SSOT: 스크리닝 (해석 → 필터 → 랭킹 → 절단) 은 여기서만
type Screener struct {
	interpreter contracts.Interpreter
	filter      *Filter
	ranker      *Ranker
	maxResults  int
	logger      *logger.Logger
}

// Option adjusts a single screen
type Option func(*options)

type options struct {
	limit int
}

// WithLimit lowers the result cap for one request. Values above the configured
// maximum (or <= 0) are ignored.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// NewScreener creates a new screener
func NewScreener(interpreter contracts.Interpreter, filter *Filter, ranker *Ranker, maxResults int, log *logger.Logger) *Screener {
	return &Screener{
		interpreter: interpreter,
		filter:      filter,
		ranker:      ranker,
		maxResults:  maxResults,
		logger:      log.Component("screener"),
	}
}

// Screen interprets query and applies it to universe.
// Upstream problems become notices; only a missing interpreter is an error.
func (s *Screener) Screen(ctx context.Context, query string, universe *contracts.Universe, opts ...Option) (*contracts.ScreenResult, error) {
	if s.interpreter == nil {
		return nil, ErrNoInterpreter
	}

	interp := s.Interpret(ctx, query)
	return s.Apply(ctx, interp, universe, opts...), nil
}

// Interpret runs the configured interpreter
func (s *Screener) Interpret(ctx context.Context, query string) contracts.Interpretation {
	if s.interpreter == nil {
		return contracts.Interpretation{Source: contracts.SourceRules}
	}
	return s.interpreter.Interpret(ctx, query)
}

// Apply filters, ranks and truncates universe according to interp
func (s *Screener) Apply(ctx context.Context, interp contracts.Interpretation, universe *contracts.Universe, opts ...Option) *contracts.ScreenResult {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	result := &contracts.ScreenResult{
		Items:          []contracts.RankedInstrument{},
		Intent:         interp.Intent,
		IntentSource:   interp.Source,
		Interpretation: interp.Summary,
		Notices:        append([]contracts.Notice(nil), interp.Notices...),
	}
	if result.Interpretation == "" {
		result.Interpretation = interp.Intent.Summary()
	}

	log := s.logger.WithContext(ctx)

	// Phase 0: unparseable query
	if !interp.Parsed() {
		result.Status = contracts.StatusUnparseable
		result.Notices = append(result.Notices, contracts.Notice{
			Kind:    contracts.KindUnparseableQuery,
			Message: "We could not find a sector, price or metric in that request. Try something like \"tech stocks under $50 with strong growth\".",
		})
		log.WithField("source", interp.Source).Info("query unparseable")
		return result
	}

	if universe.Len() == 0 {
		result.Status = contracts.StatusNoMatches
		result.Notices = append(result.Notices, contracts.Notice{
			Kind:    contracts.KindEmptyUniverse,
			Message: "No market data is available right now.",
		})
		log.Warn("screen over empty universe")
		return result
	}

	if len(universe.Missing) > 0 {
		result.Notices = append(result.Notices, contracts.Notice{
			Kind:    contracts.KindPartialUniverse,
			Message: fmt.Sprintf("Market data for %d symbol(s) could not be loaded; they are not included.", len(universe.Missing)),
		})
	}

	// Phase 1: hard cut filter (중복 심볼은 첫 항목만)
	seen := make(map[string]bool, len(universe.Records))
	passed := make([]contracts.InstrumentRecord, 0)
	filtered := make(map[string]int) // Filter name -> count
	for i := range universe.Records {
		rec := &universe.Records[i]
		if seen[rec.Symbol] {
			filtered["duplicate"]++
			continue
		}
		seen[rec.Symbol] = true

		if reason := s.filter.Check(&interp.Intent, rec); reason != "" {
			filtered[reason]++
			continue
		}
		passed = append(passed, *rec)
	}

	// Phase 2: rank
	ranked := s.ranker.Rank(interp.Intent.OtherTerms, passed)

	// Phase 3: truncate (tail only)
	limit := s.cap(o.limit)
	result.TotalMatched = len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
		result.Truncated = true
	}
	result.Items = ranked

	if len(ranked) == 0 {
		result.Status = contracts.StatusNoMatches
	} else {
		result.Status = contracts.StatusOK
	}

	log.WithFields(map[string]interface{}{
		"total_input":   len(universe.Records),
		"passed":        result.TotalMatched,
		"returned":      len(result.Items),
		"truncated":     result.Truncated,
		"filters":       filtered,
		"intent_source": interp.Source,
	}).Info("Screening completed")

	return result
}

func (s *Screener) cap(requested int) int {
	if requested > 0 && requested < s.maxResults {
		return requested
	}
	return s.maxResults
}
