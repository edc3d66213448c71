package sentiment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpilot/internal/llm"
	"github.com/wonny/stockpilot/internal/news"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/redis"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	f.calls++
	return f.reply, f.err
}

func headlines(titles ...string) []news.Article {
	out := make([]news.Article, len(titles))
	for i, t := range titles {
		out[i] = news.Article{Headline: t, Source: "test"}
	}
	return out
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Label
	}{
		{0, Bearish},
		{0.35, Bearish},
		{0.36, Neutral},
		{0.5, Neutral},
		{0.65, Neutral},
		{0.66, Bullish},
		{1, Bullish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelFor(tt.score), "score %v", tt.score)
	}
}

func TestAnalyze_NoArticles(t *testing.T) {
	c := &fakeCompleter{}
	r := NewAnalyzer(c, time.Second, 500, logger.Nop()).Analyze(context.Background(), "xyz", nil)

	assert.Equal(t, "XYZ", r.Symbol)
	assert.Equal(t, 0.5, r.Score)
	assert.Equal(t, Neutral, r.Label)
	assert.Equal(t, MethodNone, r.Method)
	assert.Equal(t, Distribution{}, r.Distribution)
	assert.Empty(t, r.Headlines)
	assert.Equal(t, 0, c.calls)
}

func TestAnalyze_LLM(t *testing.T) {
	c := &fakeCompleter{reply: "```json\n" + `{"articles":[
		{"index":2,"score":0.2,"reasoning":"target cut"},
		{"index":1,"score":0.9,"reasoning":"beat"},
		{"index":3,"score":0.5,"reasoning":""},
		{"index":4,"score":0.8,"reasoning":"upgrade"}
	]}` + "\n```"}

	r := NewAnalyzer(c, time.Second, 500, logger.Nop()).Analyze(context.Background(), "XYZ",
		headlines("Block beats", "Analysts cut target", "Block to present at conference", "Upgrade to buy"))

	assert.Equal(t, MethodLLM, r.Method)
	require.Len(t, r.Headlines, 4)
	assert.Equal(t, Bullish, r.Headlines[0].Label)
	assert.Equal(t, "beat", r.Headlines[0].Reasoning)
	assert.Equal(t, Bearish, r.Headlines[1].Label)
	assert.InDelta(t, 0.6, r.Score, 1e-9)
	assert.Equal(t, Neutral, r.Label)
	assert.Equal(t, Distribution{Bullish: 50, Neutral: 25, Bearish: 25}, r.Distribution)
}

func TestAnalyze_FallsBackToLexical(t *testing.T) {
	arts := headlines("Shares surge to record after earnings beat", "Regulators open probe; stock falls")

	tests := []struct {
		name string
		c    llm.Completer
	}{
		{"no completer", nil},
		{"llm error", &fakeCompleter{err: errors.New("503")}},
		{"free text", &fakeCompleter{reply: "Mostly positive news."}},
		{"missing headline", &fakeCompleter{reply: `{"articles":[{"index":1,"score":0.9}]}`}},
		{"score out of range", &fakeCompleter{reply: `{"articles":[{"index":1,"score":9},{"index":2,"score":0.1}]}`}},
		{"duplicate index", &fakeCompleter{reply: `{"articles":[{"index":1,"score":0.9},{"index":1,"score":0.1}]}`}},
		{"unknown field", &fakeCompleter{reply: `{"articles":[],"overall":"bullish"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewAnalyzer(tt.c, time.Second, 500, logger.Nop()).Analyze(context.Background(), "XYZ", arts)

			assert.Equal(t, MethodLexical, r.Method)
			require.Len(t, r.Headlines, 2)
			assert.Equal(t, Bullish, r.Headlines[0].Label)
			assert.Equal(t, Bearish, r.Headlines[1].Label)
			assert.Equal(t, Distribution{Bullish: 50, Bearish: 50}, r.Distribution)
		})
	}
}

func TestLexicalScore(t *testing.T) {
	assert.Equal(t, 0.5, lexicalScore("Company to hold annual meeting"))
	assert.Equal(t, 1.0, lexicalScore("Stock soars after upgrade"))
	assert.Equal(t, 0.0, lexicalScore("Shares plunge on weak guidance"))
	assert.Equal(t, 0.5, lexicalScore("Revenue beats but guidance cut"))
}

type stubSource struct {
	articles []news.Article
	err      error
	calls    int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context, symbol string, limit int) ([]news.Article, error) {
	s.calls++
	return s.articles, s.err
}

func TestService_Report(t *testing.T) {
	cache := redis.NewCache(redis.Disabled(), redis.KeyPrefix)
	analyzer := NewAnalyzer(nil, time.Second, 500, logger.Nop())

	src := &stubSource{articles: headlines("Record profit lifts shares")}
	r, err := NewService(src, analyzer, cache, 10, logger.Nop()).Report(context.Background(), " xyz ")
	require.NoError(t, err)
	assert.Equal(t, "XYZ", r.Symbol)
	assert.Equal(t, Bullish, r.Label)
	assert.Equal(t, 1, src.calls)

	failing := &stubSource{err: errors.New("down")}
	_, err = NewService(failing, analyzer, cache, 10, logger.Nop()).Report(context.Background(), "XYZ")
	assert.Error(t, err)
}

type symbolSource struct {
	mu       sync.Mutex
	articles map[string][]news.Article
	failing  map[string]bool
}

func (s *symbolSource) Name() string { return "symbols" }

func (s *symbolSource) Fetch(ctx context.Context, symbol string, limit int) ([]news.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[symbol] {
		return nil, errors.New("feed down")
	}
	return s.articles[symbol], nil
}

func TestService_Market(t *testing.T) {
	cache := redis.NewCache(redis.Disabled(), redis.KeyPrefix)
	analyzer := NewAnalyzer(nil, time.Second, 500, logger.Nop())
	src := &symbolSource{
		articles: map[string][]news.Article{
			"SPY": headlines("Record profit lifts shares"),
			"QQQ": headlines("Record profit lifts shares", "Strong growth beats estimates"),
		},
		failing: map[string]bool{"DIA": true},
	}
	svc := NewService(src, analyzer, cache, 10, logger.Nop())

	r, err := svc.Market(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, r.Stocks, 2)
	assert.Contains(t, r.Missing, "DIA")
	assert.Equal(t, Bullish, r.Label)
	assert.Contains(t, r.Summary, "2 bullish")

	// 기사 없는 심볼만 있으면 중립
	r, err = svc.Market(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, Neutral, r.Label)
	assert.Equal(t, MethodNone, r.Stocks["AAPL"].Method)

	_, err = svc.Market(context.Background(), []string{"DIA"})
	assert.Error(t, err)

	_, err = svc.Market(context.Background(), make([]string, MaxMarketSymbols+1))
	assert.Error(t, err)
}
