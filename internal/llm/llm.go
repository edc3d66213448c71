package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/stockpilot/pkg/config"
	"github.com/wonny/stockpilot/pkg/logger"
)

// ErrDisabled is returned by New when LLM_PROVIDER=none
var ErrDisabled = errors.New("llm disabled")

// ErrEmptyResponse means the provider answered without any text
var ErrEmptyResponse = errors.New("empty llm response")

// Prompt is a single system+user exchange
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer is the language model service
// ⭐ SSOT: 모든 LLM 호출은 이 인터페이스를 통해서만 수행
// 재시도 정책은 호출자(intent.Chain)가 소유, 구현체는 1회만 호출
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// Default models per provider
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-haiku-4-5"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// New builds the configured provider wrapped with logging and tracing
func New(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (Completer, error) {
	if cfg.Provider == "none" {
		return nil, ErrDisabled
	}

	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("llm provider %s: api key not configured", cfg.Provider)
	}

	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case "openai":
		c = NewOpenAI(key, modelOr(cfg.Model, DefaultOpenAIModel))
	case "anthropic":
		c = NewAnthropic(key, modelOr(cfg.Model, DefaultAnthropicModel))
	case "gemini":
		c, err = NewGemini(ctx, key, modelOr(cfg.Model, DefaultGeminiModel))
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return Observe(c, log), nil
}

func modelOr(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}

// CleanJSON strips code fences and surrounding prose from a model reply
func CleanJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// LooksLikeJSON reports whether CleanJSON found an object
func LooksLikeJSON(content string) bool {
	c := CleanJSON(content)
	return strings.HasPrefix(c, "{") && strings.HasSuffix(c, "}")
}
