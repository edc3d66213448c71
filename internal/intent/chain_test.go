package intent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/internal/lexicon"
	"github.com/wonny/stockpilot/internal/llm"
	"github.com/wonny/stockpilot/pkg/logger"
)

// scriptedCompleter answers each call with the next step
type scriptedCompleter struct {
	mu    sync.Mutex
	steps []func(ctx context.Context) (string, error)
	calls int
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(ctx context.Context, _ llm.Prompt) (string, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()
	if i >= len(s.steps) {
		return "", errors.New("unexpected call")
	}
	return s.steps[i](ctx)
}

func (s *scriptedCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func reply(text string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return text, nil }
}

func fail(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func hang() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
}

var serverError = &llm.APIError{Provider: "scripted", StatusCode: 503, Err: errors.New("overloaded")}

func newChain(t *testing.T, c llm.Completer, timeout time.Duration) *Chain {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)

	var extractor *LLMExtractor
	if c != nil {
		extractor = NewLLMExtractor(c, lex, 400)
	}
	return NewChain(extractor, NewRuleExtractor(lex), timeout, 5*time.Millisecond, logger.Nop())
}

const techJSON = `{"sectors":["Tech"],"price_min":null,"price_max":null,"growth_min":20,"pe_max":null,
"dividend_min":null,"market_cap_min":null,"other_terms":["AI"],"interpretation":"Growing tech names"}`

func TestChain_LLMSuccess(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){reply("```json\n" + techJSON + "\n```")}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "fast AI software")

	assert.Equal(t, contracts.SourceLLM, got.Source)
	assert.Equal(t, []string{"technology"}, got.Intent.Sectors)
	require.NotNil(t, got.Intent.GrowthMin)
	assert.InDelta(t, 0.20, *got.Intent.GrowthMin, 1e-9)
	assert.Equal(t, []string{"ai"}, got.Intent.OtherTerms)
	assert.Equal(t, "Growing tech names", got.Summary)
	assert.Empty(t, got.Notices)
	assert.Equal(t, 1, c.Calls())
}

func TestChain_CurrencyAnchorOverridesLLMPrice(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){
		reply(`{"sectors":["technology"],"price_min":10,"price_max":55,"other_terms":[]}`),
	}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "tech stocks under $50 with strong growth")

	assert.Equal(t, contracts.SourceLLM, got.Source)
	require.NotNil(t, got.Intent.PriceMax)
	assert.Equal(t, 50.0, *got.Intent.PriceMax)
	assert.Nil(t, got.Intent.PriceMin)
}

func TestChain_TimeoutFallsBackToRules(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){hang()}}

	start := time.Now()
	got := newChain(t, c, 30*time.Millisecond).Interpret(context.Background(), "tech stocks under $50 with strong growth")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, contracts.SourceRules, got.Source)
	require.Len(t, got.Notices, 1)
	assert.Equal(t, contracts.KindUpstreamTimeout, got.Notices[0].Kind)
	assert.Equal(t, 50.0, *got.Intent.PriceMax)
	assert.Equal(t, 1, c.Calls(), "deadline errors are not retried")
}

func TestChain_MalformedIsNotRetried(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){
		reply(`{"sectors": "technology", "extra": true}`),
	}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "cheap banks")

	assert.Equal(t, contracts.SourceRules, got.Source)
	require.Len(t, got.Notices, 1)
	assert.Equal(t, contracts.KindMalformedIntentResponse, got.Notices[0].Kind)
	assert.Equal(t, []string{"financial services"}, got.Intent.Sectors)
	assert.Equal(t, 1, c.Calls())
}

func TestChain_InvalidIntentIsMalformed(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){
		reply(`{"price_min":90,"price_max":10}`),
	}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "energy")

	require.Len(t, got.Notices, 1)
	assert.Equal(t, contracts.KindMalformedIntentResponse, got.Notices[0].Kind)
	assert.Equal(t, []string{"energy"}, got.Intent.Sectors)
}

func TestChain_TransientRetriedOnce(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){
		fail(serverError),
		reply(techJSON),
	}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "tech")

	assert.Equal(t, contracts.SourceLLM, got.Source)
	assert.Empty(t, got.Notices)
	assert.Equal(t, 2, c.Calls())
}

func TestChain_TransientTwiceFallsBack(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){
		fail(serverError),
		fail(serverError),
	}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "utilities under $40")

	assert.Equal(t, contracts.SourceRules, got.Source)
	require.Len(t, got.Notices, 1)
	assert.Equal(t, contracts.KindUpstreamUnavailable, got.Notices[0].Kind)
	assert.Equal(t, 2, c.Calls(), "exactly one retry")
	assert.Equal(t, 40.0, *got.Intent.PriceMax)
}

func TestChain_NonTransientNotRetried(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){
		fail(&llm.APIError{Provider: "scripted", StatusCode: 401, Err: errors.New("bad key")}),
	}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "energy")

	require.Len(t, got.Notices, 1)
	assert.Equal(t, contracts.KindUpstreamUnavailable, got.Notices[0].Kind)
	assert.Equal(t, 1, c.Calls())
}

func TestChain_FreeTextHeuristic(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){
		reply("You probably want healthcare companies trading under $30."),
	}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "what should i buy for my retirement")

	assert.Equal(t, contracts.SourceRules, got.Source)
	require.Len(t, got.Notices, 1)
	assert.Equal(t, contracts.KindMalformedIntentResponse, got.Notices[0].Kind)
	assert.Equal(t, []string{"healthcare"}, got.Intent.Sectors)
	assert.Equal(t, 30.0, *got.Intent.PriceMax)
}

func TestChain_RulesOnly(t *testing.T) {
	got := newChain(t, nil, time.Second).Interpret(context.Background(), "tech stocks under $50 with strong growth")

	assert.Equal(t, contracts.SourceRules, got.Source)
	assert.Empty(t, got.Notices)
	assert.True(t, got.Parsed())
}

func TestChain_Unparseable(t *testing.T) {
	c := &scriptedCompleter{steps: []func(context.Context) (string, error){
		reply(`{"sectors":[],"other_terms":["hello"],"interpretation":"A greeting"}`),
	}}

	got := newChain(t, c, time.Second).Interpret(context.Background(), "hello")
	assert.False(t, got.Parsed())

	empty := newChain(t, nil, time.Second).Interpret(context.Background(), "   ")
	assert.False(t, empty.Parsed())
}

func TestLLMExtractor_UnknownSectorsBecomeTerms(t *testing.T) {
	lex, err := lexicon.Default()
	require.NoError(t, err)

	e := NewLLMExtractor(&scriptedCompleter{}, lex, 0)
	out, err := e.parse(`{"sectors":["Banks","Crypto"],"market_cap_min":2,"dividend_min":3}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"financial services"}, out.Intent.Sectors)
	assert.Equal(t, []string{"crypto"}, out.Intent.OtherTerms)
	assert.Equal(t, 2e9, *out.Intent.MarketCapMin)
	assert.InDelta(t, 0.03, *out.Intent.DividendYieldMin, 1e-9)

	_, err = e.parse("no json here")
	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.True(t, malformed.FreeText)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
