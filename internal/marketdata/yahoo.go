package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
)

// YahooProvider reads equity quotes and daily bars from Yahoo Finance.
// The finance-go calls are not context aware, so each one runs in its own
// goroutine and is abandoned when ctx ends.
type YahooProvider struct {
	logger *logger.Logger
}

// NewYahooProvider creates a Yahoo Finance provider
func NewYahooProvider(log *logger.Logger) *YahooProvider {
	return &YahooProvider{logger: log.Component("yahoo")}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// Fetch returns the equity snapshot for symbol
func (p *YahooProvider) Fetch(ctx context.Context, symbol string) (*contracts.InstrumentRecord, error) {
	symbol = strings.ToUpper(symbol)

	q, err := await(ctx, func() (*finance.Equity, error) {
		return equity.Get(symbol)
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo equity %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("yahoo equity %s: %w", symbol, ErrNotFound)
	}

	return equityRecord(q), nil
}

// equityRecord maps a Yahoo equity quote; zero values mean "not reported"
func equityRecord(q *finance.Equity) *contracts.InstrumentRecord {
	name := q.LongName
	if name == "" {
		name = q.ShortName
	}

	rec := &contracts.InstrumentRecord{
		Symbol: strings.ToUpper(q.Symbol),
		Name:   name,
		Price:  contracts.Float(q.RegularMarketPrice),
		PE:     positive(q.TrailingPE),
		AsOf:   time.Now().UTC(),
	}
	if q.RegularMarketTime > 0 {
		rec.AsOf = time.Unix(int64(q.RegularMarketTime), 0).UTC()
	}
	if q.MarketCap > 0 {
		rec.MarketCap = contracts.Float(float64(q.MarketCap))
	}
	if q.TrailingAnnualDividendYield > 0 {
		rec.DividendYield = contracts.Float(q.TrailingAnnualDividendYield)
	}
	// 성장률: 추정 EPS / 최근 12개월 EPS
	if q.EpsTrailingTwelveMonths > 0 && q.EpsForward != 0 {
		rec.Growth = contracts.Float(q.EpsForward/q.EpsTrailingTwelveMonths - 1)
	}

	return rec
}

// Candles returns up to days daily bars, oldest first
func (p *YahooProvider) Candles(ctx context.Context, symbol string, days int) ([]Candle, error) {
	symbol = strings.ToUpper(symbol)
	end := time.Now().UTC()
	// 휴장일 여유분
	start := end.AddDate(0, 0, -(days*7/5 + 10))

	candles, err := await(ctx, func() ([]Candle, error) {
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		})

		var out []Candle
		for iter.Next() {
			bar := iter.Bar()
			c, _ := bar.Close.Float64()
			out = append(out, Candle{Time: time.Unix(int64(bar.Timestamp), 0).UTC(), Close: c})
		}
		return out, iter.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNotFound)
	}

	if len(candles) > days {
		candles = candles[len(candles)-days:]
	}
	return candles, nil
}

func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
