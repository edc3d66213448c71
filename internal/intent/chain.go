package intent

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/internal/llm"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/tracing"
)

// Chain is the query interpreter: LLM first, deterministic rules as fallback.
// ⭐ SSOT: 질의 해석 정책 (타임아웃 / 1회 재시도 / 폴백)
// LLM 장애로 해석이 실패하지 않음 (항상 Interpretation 반환)
type Chain struct {
	llm     *LLMExtractor // nil → rules only
	rules   *RuleExtractor
	timeout time.Duration
	backoff time.Duration
	logger  *logger.Logger
}

// Compile-time interface check
var _ contracts.Interpreter = (*Chain)(nil)

// NewChain creates the interpreter. extractor may be nil.
func NewChain(extractor *LLMExtractor, rules *RuleExtractor, timeout, backoff time.Duration, log *logger.Logger) *Chain {
	return &Chain{
		llm:     extractor,
		rules:   rules,
		timeout: timeout,
		backoff: backoff,
		logger:  log.Component("intent"),
	}
}

// Interpret turns query into an Interpretation
func (c *Chain) Interpret(ctx context.Context, query string) contracts.Interpretation {
	ctx, span := tracing.StartSpan(ctx, "intent.Interpret")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return contracts.Interpretation{Source: contracts.SourceRules}
	}

	ruled := c.rules.Extract(query)
	if c.llm == nil {
		return c.fromRules(ruled, "", nil)
	}

	extracted, err := c.callLLM(ctx, query)
	log := c.logger.WithContext(ctx).WithField("provider", c.llm.Provider())

	if err != nil {
		notice := classify(err)
		span.SetAttributes(attribute.String("intent.fallback", string(notice.Kind)))
		log.WithFields(map[string]interface{}{
			"kind": notice.Kind,
		}).WithError(err).Warn("llm intent extraction failed, using rules")

		// 자유 텍스트 응답: 질의 규칙 결과가 비었으면 응답 텍스트에 규칙 적용
		var malformed *MalformedResponseError
		if errors.As(err, &malformed) && malformed.FreeText && !ruled.Intent.HasConstraints() && malformed.Raw != "" {
			if secondary := c.rules.Extract(malformed.Raw); secondary.Intent.HasConstraints() {
				log.Info("recovered intent from llm free text")
				return c.fromRules(secondary, "", []contracts.Notice{notice})
			}
		}

		return c.fromRules(ruled, "", []contracts.Notice{notice})
	}

	intent := extracted.Intent
	if ruled.CurrencyAnchored {
		// 질의의 통화 금액이 LLM 가격 범위보다 우선
		intent.PriceMin = ruled.Intent.PriceMin
		intent.PriceMax = ruled.Intent.PriceMax
	}

	if !intent.HasConstraints() && ruled.Intent.HasConstraints() {
		log.Debug("llm intent empty, rules found constraints")
		return c.fromRules(ruled, extracted.Summary, nil)
	}

	span.SetAttributes(attribute.String("intent.source", string(contracts.SourceLLM)))
	return contracts.Interpretation{
		Intent:  intent,
		Source:  contracts.SourceLLM,
		Summary: extracted.Summary,
	}
}

func (c *Chain) fromRules(r RuleExtraction, summary string, notices []contracts.Notice) contracts.Interpretation {
	return contracts.Interpretation{
		Intent:  r.Intent,
		Source:  contracts.SourceRules,
		Summary: summary,
		Notices: notices,
	}
}

// callLLM runs the extractor under the LLM deadline with at most one retry
// for transient failures.
func (c *Chain) callLLM(ctx context.Context, query string) (*LLMExtraction, error) {
	llmCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.llm.Extract(llmCtx, query)
	if err == nil || !llm.IsTransient(err) {
		return out, deadlineAware(llmCtx, err)
	}

	if dl, ok := llmCtx.Deadline(); ok && time.Until(dl) <= c.backoff {
		return nil, err
	}

	c.logger.WithContext(ctx).WithError(err).WithField("backoff", c.backoff.String()).Info("retrying llm intent extraction")

	select {
	case <-llmCtx.Done():
		return nil, llmCtx.Err()
	case <-time.After(c.backoff):
	}

	out, err = c.llm.Extract(llmCtx, query)
	return out, deadlineAware(llmCtx, err)
}

// deadlineAware reports the LLM deadline as such even when the SDK wraps it
func deadlineAware(ctx context.Context, err error) error {
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(err, context.DeadlineExceeded)
	}
	return err
}

func classify(err error) contracts.Notice {
	switch {
	case llm.IsTimeout(err):
		return contracts.Notice{
			Kind:    contracts.KindUpstreamTimeout,
			Message: "The language model did not answer in time; the query was interpreted with built-in rules.",
		}
	case errors.Is(err, ErrMalformedResponse):
		return contracts.Notice{
			Kind:    contracts.KindMalformedIntentResponse,
			Message: "The language model returned an unusable answer; the query was interpreted with built-in rules.",
		}
	default:
		return contracts.Notice{
			Kind:    contracts.KindUpstreamUnavailable,
			Message: "The language model is unavailable; the query was interpreted with built-in rules.",
		}
	}
}
