package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnhubSource reads company news from Finnhub
type FinnhubSource struct {
	client   *finnhub.DefaultApiService
	lookback time.Duration
}

// NewFinnhubSource creates a source covering the last lookbackDays days
func NewFinnhubSource(apiKey string, lookbackDays int, opts ...func(*finnhub.Configuration)) *FinnhubSource {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	for _, opt := range opts {
		opt(cfg)
	}

	if lookbackDays <= 0 {
		lookbackDays = 7
	}

	return &FinnhubSource{
		client:   finnhub.NewAPIClient(cfg).DefaultApi,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
	}
}

// Name returns the source name
func (s *FinnhubSource) Name() string {
	return "finnhub"
}

// Fetch returns company news, newest first
func (s *FinnhubSource) Fetch(ctx context.Context, symbol string, limit int) ([]Article, error) {
	to := time.Now().UTC()
	from := to.Add(-s.lookback)

	res, _, err := s.client.CompanyNews(ctx).
		Symbol(strings.ToUpper(symbol)).
		From(from.Format("2006-01-02")).
		To(to.Format("2006-01-02")).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub company news %s: %w", symbol, err)
	}

	articles := make([]Article, 0, len(res))
	for _, n := range res {
		a := Article{
			Headline:  strings.TrimSpace(n.GetHeadline()),
			Summary:   strings.TrimSpace(n.GetSummary()),
			URL:       n.GetUrl(),
			Publisher: n.GetSource(),
			Source:    s.Name(),
		}
		if ts := n.GetDatetime(); ts > 0 {
			a.PublishedAt = time.Unix(ts, 0).UTC()
		}
		articles = append(articles, a)
	}

	return newestFirst(articles, limit), nil
}
