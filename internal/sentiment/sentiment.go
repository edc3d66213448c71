package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/stockpilot/internal/llm"
	"github.com/wonny/stockpilot/internal/news"
	"github.com/wonny/stockpilot/pkg/logger"
)

// Label is the sentiment band of a score
type Label string

const (
	Bullish Label = "bullish"
	Neutral Label = "neutral"
	Bearish Label = "bearish"
)

// Method records how headline scores were produced
type Method string

const (
	MethodLLM     Method = "llm"
	MethodLexical Method = "lexical"
	MethodNone    Method = "none" // 기사 없음
)

// Band thresholds: score <= BearishMax → bearish, <= NeutralMax → neutral
const (
	BearishMax = 0.35
	NeutralMax = 0.65
)

// LabelFor maps a 0..1 score to its band
func LabelFor(score float64) Label {
	switch {
	case score <= BearishMax:
		return Bearish
	case score <= NeutralMax:
		return Neutral
	default:
		return Bullish
	}
}

// HeadlineScore is one scored article
type HeadlineScore struct {
	news.Article
	Score     float64 `json:"score"`
	Label     Label   `json:"label"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// Distribution holds the share of headlines per band, in percent
type Distribution struct {
	Bullish float64 `json:"bullish"`
	Neutral float64 `json:"neutral"`
	Bearish float64 `json:"bearish"`
}

// Report is the sentiment summary for one symbol
type Report struct {
	Symbol       string          `json:"symbol"`
	Score        float64         `json:"score"`
	Label        Label           `json:"label"`
	Distribution Distribution    `json:"distribution"`
	Headlines    []HeadlineScore `json:"headlines"`
	Method       Method          `json:"method"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// Analyzer scores headlines with the language model, falling back to the
// lexical scorer when the model is unavailable or answers badly.
// ⭐ SSOT: 감성 점수 산출은 여기서만
type Analyzer struct {
	completer llm.Completer // nil → lexical only
	timeout   time.Duration
	maxTokens int
	logger    *logger.Logger
}

// NewAnalyzer creates an analyzer. completer may be nil.
func NewAnalyzer(completer llm.Completer, timeout time.Duration, maxTokens int, log *logger.Logger) *Analyzer {
	return &Analyzer{
		completer: completer,
		timeout:   timeout,
		maxTokens: maxTokens,
		logger:    log.Component("sentiment"),
	}
}

// Analyze scores articles. No articles yields a neutral 0.5 report.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, articles []news.Article) *Report {
	report := &Report{
		Symbol:      strings.ToUpper(symbol),
		Score:       0.5,
		Label:       Neutral,
		Headlines:   []HeadlineScore{},
		Method:      MethodNone,
		GeneratedAt: time.Now().UTC(),
	}
	if len(articles) == 0 {
		return report
	}

	scored, err := a.scoreWithLLM(ctx, articles)
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			a.logger.WithContext(ctx).WithField("symbol", report.Symbol).WithError(err).Warn("llm sentiment failed, using lexical scorer")
		}
		scored = scoreLexical(articles)
		report.Method = MethodLexical
	} else {
		report.Method = MethodLLM
	}

	report.Headlines = scored
	report.Score, report.Distribution = summarize(scored)
	report.Label = LabelFor(report.Score)
	return report
}

const systemPrompt = `You are an expert financial news analyst.
Score the sentiment of each numbered headline for the stock price between 0 and 1:
0 to 0.35 is bearish, 0.36 to 0.65 is neutral, 0.66 to 1 is bullish.
Reply with a single JSON object and nothing else:
{"articles": [{"index": 1, "score": 0.75, "reasoning": "brief explanation"}]}
Include every headline exactly once.`

type llmArticle struct {
	Index     int     `json:"index"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

type llmReply struct {
	Articles []llmArticle `json:"articles"`
}

func (a *Analyzer) scoreWithLLM(ctx context.Context, articles []news.Article) ([]HeadlineScore, error) {
	if a.completer == nil {
		return nil, llm.ErrDisabled
	}

	var b strings.Builder
	b.WriteString("Headlines:\n")
	for i, art := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, art.Headline)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.completer.Complete(ctx, llm.Prompt{
		System:      systemPrompt,
		User:        b.String(),
		MaxTokens:   a.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	return parseReply(raw, articles)
}

// parseReply validates the model reply: every index in range exactly once,
// every score within 0..1
func parseReply(raw string, articles []news.Article) ([]HeadlineScore, error) {
	var reply llmReply
	dec := json.NewDecoder(bytes.NewReader([]byte(llm.CleanJSON(raw))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode sentiment reply: %w", err)
	}

	out := make([]HeadlineScore, len(articles))
	filled := make([]bool, len(articles))
	for _, r := range reply.Articles {
		i := r.Index - 1
		if i < 0 || i >= len(articles) || filled[i] {
			return nil, fmt.Errorf("sentiment reply: bad index %d", r.Index)
		}
		if math.IsNaN(r.Score) || r.Score < 0 || r.Score > 1 {
			return nil, fmt.Errorf("sentiment reply: score %g out of range", r.Score)
		}
		filled[i] = true
		out[i] = HeadlineScore{
			Article:   articles[i],
			Score:     r.Score,
			Label:     LabelFor(r.Score),
			Reasoning: strings.TrimSpace(r.Reasoning),
		}
	}
	for i, ok := range filled {
		if !ok {
			return nil, fmt.Errorf("sentiment reply: headline %d missing", i+1)
		}
	}

	return out, nil
}

// summarize returns the mean score and the band distribution (percent)
func summarize(scored []HeadlineScore) (float64, Distribution) {
	var d Distribution
	if len(scored) == 0 {
		return 0.5, d
	}

	var sum float64
	counts := map[Label]int{}
	for _, s := range scored {
		sum += s.Score
		counts[s.Label]++
	}

	n := float64(len(scored))
	d.Bullish = round1(float64(counts[Bullish]) / n * 100)
	d.Neutral = round1(float64(counts[Neutral]) / n * 100)
	d.Bearish = round1(float64(counts[Bearish]) / n * 100)

	return math.Round(sum/n*1000) / 1000, d
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
