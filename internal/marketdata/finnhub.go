package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
	"golang.org/x/time/rate"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
)

// FinnhubProvider reads quote, profile and basic financials from Finnhub.
// Three API calls per symbol, all through one token bucket.
type FinnhubProvider struct {
	client  *finnhub.DefaultApiService
	limiter *rate.Limiter
	logger  *logger.Logger
}

// FinnhubOption customizes the provider
type FinnhubOption func(*finnhub.Configuration)

// WithFinnhubHTTPClient replaces the SDK's HTTP client
func WithFinnhubHTTPClient(c *http.Client) FinnhubOption {
	return func(cfg *finnhub.Configuration) {
		cfg.HTTPClient = c
	}
}

// NewFinnhubProvider creates a provider limited to ratePerMin requests
func NewFinnhubProvider(apiKey string, ratePerMin int, log *logger.Logger, opts ...FinnhubOption) *FinnhubProvider {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	for _, opt := range opts {
		opt(cfg)
	}

	if ratePerMin <= 0 {
		ratePerMin = 60
	}

	return &FinnhubProvider{
		client:  finnhub.NewAPIClient(cfg).DefaultApi,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMin)), 1),
		logger:  log.Component("finnhub"),
	}
}

// Name returns the provider name
func (p *FinnhubProvider) Name() string {
	return "finnhub"
}

// Fetch builds a record for symbol. The quote is required; profile and
// metrics failures leave the corresponding fields nil.
func (p *FinnhubProvider) Fetch(ctx context.Context, symbol string) (*contracts.InstrumentRecord, error) {
	symbol = strings.ToUpper(symbol)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	quote, _, err := p.client.Quote(ctx).Symbol(symbol).Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	// 미지원 심볼은 c=0 으로 응답
	if quote.GetC() <= 0 {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, ErrNotFound)
	}

	rec := &contracts.InstrumentRecord{
		Symbol: symbol,
		Price:  contracts.Float(float64(quote.GetC())),
		AsOf:   time.Now().UTC(),
	}

	log := p.logger.WithContext(ctx).WithField("symbol", symbol)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	profile, _, err := p.client.CompanyProfile2(ctx).Symbol(symbol).Execute()
	if err != nil {
		log.WithError(err).Warn("finnhub profile unavailable")
	} else {
		rec.Name = profile.GetName()
		rec.Industry = profile.GetFinnhubIndustry()
		if mc := profile.GetMarketCapitalization(); mc > 0 {
			rec.MarketCap = contracts.Float(float64(mc) * 1e6) // 백만 달러 단위
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	financials, _, err := p.client.CompanyBasicFinancials(ctx).Symbol(symbol).Metric("all").Execute()
	if err != nil {
		log.WithError(err).Warn("finnhub basic financials unavailable")
	} else {
		applyMetrics(rec, financials.GetMetric())
	}

	return rec, nil
}

// applyMetrics maps Finnhub metric keys onto rec
func applyMetrics(rec *contracts.InstrumentRecord, metric map[string]interface{}) {
	if pe, ok := firstNumber(metric, "peTTM", "peBasicExclExtraTTM", "peExclExtraTTM"); ok {
		rec.PE = contracts.Float(pe)
	}
	if g, ok := firstNumber(metric, "revenueGrowthTTMYoy", "revenueGrowthQuarterlyYoy"); ok {
		rec.Growth = percent(g)
	}
	if y, ok := firstNumber(metric, "dividendYieldIndicatedAnnual", "currentDividendYieldTTM"); ok {
		rec.DividendYield = percent(y)
	}
}

func firstNumber(metric map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := metric[k].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		}
	}
	return 0, false
}
