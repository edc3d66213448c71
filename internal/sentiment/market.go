package sentiment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Market index proxies used when no symbols are given
var DefaultMarketSymbols = []string{"SPY", "QQQ", "DIA"}

// MaxMarketSymbols bounds one market request
const MaxMarketSymbols = 10

// MarketReport is the combined sentiment of several symbols
type MarketReport struct {
	Score   float64            `json:"score"`
	Label   Label              `json:"label"`
	Summary string             `json:"summary"`
	Stocks  map[string]*Report `json:"stocks"`
	// Missing maps symbols whose news could not be fetched to the reason
	Missing     map[string]string `json:"missing,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Market reports overall sentiment across symbols. Symbols without
// headlines are listed but do not move the overall score.
func (s *Service) Market(ctx context.Context, symbols []string) (*MarketReport, error) {
	if len(symbols) == 0 {
		symbols = DefaultMarketSymbols
	}
	if len(symbols) > MaxMarketSymbols {
		return nil, fmt.Errorf("too many symbols (max %d)", MaxMarketSymbols)
	}

	out := &MarketReport{
		Stocks:      make(map[string]*Report, len(symbols)),
		GeneratedAt: time.Now().UTC(),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, sym := range symbols {
		g.Go(func() error {
			r, err := s.Report(gctx, sym)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if out.Missing == nil {
					out.Missing = make(map[string]string)
				}
				out.Missing[strings.ToUpper(sym)] = err.Error()
				return nil
			}
			out.Stocks[r.Symbol] = r
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(out.Stocks) == 0 {
		return nil, fmt.Errorf("no news for any of %d symbols", len(symbols))
	}

	var (
		sum   float64
		n     int
		bands = map[Label]int{}
	)
	for _, r := range out.Stocks {
		if r.Method == MethodNone {
			continue
		}
		sum += r.Score
		n++
		bands[r.Label]++
	}

	if n == 0 {
		out.Score = 0.5
		out.Label = Neutral
		out.Summary = "No recent headlines for the requested symbols."
		return out, nil
	}

	out.Score = sum / float64(n)
	out.Label = LabelFor(out.Score)
	out.Summary = fmt.Sprintf("Overall %s (%.2f): %d bullish, %d neutral, %d bearish of %d symbols with news.",
		out.Label, out.Score, bands[Bullish], bands[Neutral], bands[Bearish], n)
	return out, nil
}
