package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/stockpilot/internal/contracts"
)

// ErrNotFound is returned when a provider has no data for a symbol
var ErrNotFound = errors.New("symbol not found")

// ErrNoCandles is returned by providers that cannot serve price history
var ErrNoCandles = errors.New("price history not supported by provider")

// Provider fetches one instrument snapshot
// ⭐ SSOT: 시세/재무 조회 인터페이스
type Provider interface {
	Fetch(ctx context.Context, symbol string) (*contracts.InstrumentRecord, error)
	Name() string
}

// Candle is one daily bar
type Candle struct {
	Time  time.Time `json:"time" yaml:"time"`
	Close float64   `json:"close" yaml:"close"`
}

// CandleSource serves daily price history for indicators
type CandleSource interface {
	Candles(ctx context.Context, symbol string, days int) ([]Candle, error)
}

// Closes extracts close prices, oldest first
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// percent converts a percentage reported by a provider into a fraction
func percent(v float64) *float64 {
	return contracts.Float(v / 100)
}

// positive returns nil for zero or negative provider values ("not reported")
func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return contracts.Float(v)
}
