package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/internal/lexicon"
	"github.com/wonny/stockpilot/internal/llm"
)

// ErrMalformedResponse marks an LLM reply that could not be used as an intent
var ErrMalformedResponse = errors.New("malformed intent response")

// MalformedResponseError carries the raw reply for the free-text heuristic
type MalformedResponseError struct {
	Raw      string
	FreeText bool // reply had no JSON object at all
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedResponse, e.Err)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

const systemPrompt = `You convert a stock screening request into JSON filters.
Reply with a single JSON object and nothing else:
{
  "sectors": [],            // sector names mentioned, e.g. "technology", "healthcare", "energy"
  "price_min": null,        // USD share price floor, or null
  "price_max": null,        // USD share price ceiling, or null
  "growth_min": null,       // minimum YoY revenue growth in percent (15 = 15%), or null
  "pe_max": null,           // maximum trailing P/E ratio, or null
  "dividend_min": null,     // minimum dividend yield in percent (3 = 3%), or null
  "market_cap_min": null,   // minimum market cap in billions USD, or null
  "other_terms": [],        // remaining meaningful keywords, in order
  "interpretation": ""      // one sentence describing how you read the request
}
Use null for anything the request does not state. Never invent tickers.`

// llmResponse is the strict wire shape of the model reply
type llmResponse struct {
	Sectors        []string `json:"sectors"`
	PriceMin       *float64 `json:"price_min"`
	PriceMax       *float64 `json:"price_max"`
	GrowthMin      *float64 `json:"growth_min"`
	PEMax          *float64 `json:"pe_max"`
	DividendMin    *float64 `json:"dividend_min"`
	MarketCapMin   *float64 `json:"market_cap_min"`
	OtherTerms     []string `json:"other_terms"`
	Interpretation string   `json:"interpretation"`
}

// LLMExtraction is a validated intent produced by the model
type LLMExtraction struct {
	Intent  contracts.Intent
	Summary string
}

// LLMExtractor asks the language model for a structured intent
type LLMExtractor struct {
	completer llm.Completer
	lex       *lexicon.Lexicon
	maxTokens int
}

// NewLLMExtractor creates an extractor
func NewLLMExtractor(c llm.Completer, lex *lexicon.Lexicon, maxTokens int) *LLMExtractor {
	return &LLMExtractor{completer: c, lex: lex, maxTokens: maxTokens}
}

// Provider returns the underlying completer name
func (e *LLMExtractor) Provider() string {
	return e.completer.Name()
}

// Extract makes exactly one model call. Transport errors are returned as-is
// (see llm.IsTransient); unusable replies as *MalformedResponseError.
func (e *LLMExtractor) Extract(ctx context.Context, query string) (*LLMExtraction, error) {
	raw, err := e.completer.Complete(ctx, llm.Prompt{
		System:      systemPrompt,
		User:        query,
		MaxTokens:   e.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			return nil, &MalformedResponseError{Raw: "", FreeText: true, Err: err}
		}
		return nil, err
	}

	return e.parse(raw)
}

func (e *LLMExtractor) parse(raw string) (*LLMExtraction, error) {
	if !llm.LooksLikeJSON(raw) {
		return nil, &MalformedResponseError{Raw: raw, FreeText: true, Err: errors.New("no JSON object in reply")}
	}

	var resp llmResponse
	dec := json.NewDecoder(bytes.NewReader([]byte(llm.CleanJSON(raw))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&resp); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: fmt.Errorf("decode: %w", err)}
	}

	intent := contracts.Intent{
		PriceMin:         resp.PriceMin,
		PriceMax:         resp.PriceMax,
		GrowthMin:        scale(resp.GrowthMin, 0.01),
		PEMax:            resp.PEMax,
		DividendYieldMin: scale(resp.DividendMin, 0.01),
		MarketCapMin:     scale(resp.MarketCapMin, 1e9),
		OtherTerms:       lowerAll(resp.OtherTerms),
	}

	// 알 수 없는 섹터명은 키워드로 이동
	for _, name := range resp.Sectors {
		if canonical, ok := e.lex.CanonicalSector(name); ok {
			intent.Sectors = append(intent.Sectors, canonical)
		} else if name = strings.TrimSpace(strings.ToLower(name)); name != "" {
			intent.OtherTerms = append(intent.OtherTerms, name)
		}
	}
	intent.Normalize()

	if err := intent.Validate(); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	return &LLMExtraction{Intent: intent, Summary: strings.TrimSpace(resp.Interpretation)}, nil
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	return contracts.Float(*v * factor)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
