package marketdata

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/stockpilot/internal/contracts"
)

// Fixture is the YAML layout served by StaticProvider
type Fixture struct {
	AsOf    time.Time                    `yaml:"as_of"`
	Records []contracts.InstrumentRecord `yaml:"records"`
	// Closes: 심볼별 일봉 종가 (오래된 순)
	Closes map[string][]float64 `yaml:"closes"`
}

// StaticProvider serves records from a fixture file (offline demo and tests)
type StaticProvider struct {
	asOf    time.Time
	records map[string]contracts.InstrumentRecord
	closes  map[string][]float64
}

// LoadStaticProvider reads a fixture file
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}

	return NewStaticProvider(f), nil
}

// NewStaticProvider creates a provider over f
func NewStaticProvider(f Fixture) *StaticProvider {
	p := &StaticProvider{
		asOf:    f.AsOf,
		records: make(map[string]contracts.InstrumentRecord, len(f.Records)),
		closes:  make(map[string][]float64, len(f.Closes)),
	}
	if p.asOf.IsZero() {
		p.asOf = time.Now().UTC()
	}

	for _, rec := range f.Records {
		rec.Symbol = strings.ToUpper(rec.Symbol)
		if rec.AsOf.IsZero() {
			rec.AsOf = p.asOf
		}
		if _, dup := p.records[rec.Symbol]; !dup {
			p.records[rec.Symbol] = rec
		}
	}
	for sym, closes := range f.Closes {
		p.closes[strings.ToUpper(sym)] = closes
	}

	return p
}

// Name returns the provider name
func (p *StaticProvider) Name() string {
	return "static"
}

// Fetch returns a copy of the fixture record
func (p *StaticProvider) Fetch(ctx context.Context, symbol string) (*contracts.InstrumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, ok := p.records[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("static %s: %w", symbol, ErrNotFound)
	}
	rec.Tags = append([]string(nil), rec.Tags...)
	return &rec, nil
}

// Candles returns the last days closes, dated one calendar day apart up to as_of
func (p *StaticProvider) Candles(ctx context.Context, symbol string, days int) ([]Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	closes, ok := p.closes[strings.ToUpper(symbol)]
	if !ok || len(closes) == 0 {
		return nil, fmt.Errorf("static candles %s: %w", symbol, ErrNotFound)
	}
	if days > 0 && len(closes) > days {
		closes = closes[len(closes)-days:]
	}

	out := make([]Candle, len(closes))
	for i, c := range closes {
		out[i] = Candle{
			Time:  p.asOf.AddDate(0, 0, i-len(closes)+1),
			Close: c,
		}
	}
	return out, nil
}
