package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/tracing"
)

// observed wraps a Completer with logging and tracing
type observed struct {
	next Completer
	log  *logger.Logger
}

// Compile-time interface check
var _ Completer = (*observed)(nil)

// Observe decorates c with a span and structured logs per call
func Observe(c Completer, log *logger.Logger) Completer {
	return &observed{next: c, log: log.Component("llm")}
}

func (o *observed) Name() string { return o.next.Name() }

func (o *observed) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "llm.Complete",
		attribute.String("llm.provider", o.next.Name()),
		attribute.Int("llm.prompt_chars", len(p.User)),
	)
	defer span.End()

	start := time.Now()
	out, err := o.next.Complete(ctx, p)
	elapsed := time.Since(start)

	log := o.log.WithContext(ctx).WithFields(map[string]interface{}{
		"provider":    o.next.Name(),
		"duration_ms": elapsed.Milliseconds(),
	})
	if err != nil {
		tracing.RecordError(span, err)
		log.WithFields(map[string]interface{}{
			"transient": IsTransient(err),
			"timeout":   IsTimeout(err),
		}).WithError(err).Warn("llm call failed")
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.response_chars", len(out)))
	log.WithField("response_chars", len(out)).Debug("llm call completed")
	return out, nil
}
