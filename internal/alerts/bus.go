package alerts

import (
	"context"
	"encoding/json"

	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/redis"
)

// Bus carries triggers from the worker to API servers over Redis pub/sub
type Bus struct {
	pubsub *redis.PubSub
	logger *logger.Logger
}

// NewBus creates a new bus
func NewBus(pubsub *redis.PubSub, log *logger.Logger) *Bus {
	return &Bus{pubsub: pubsub, logger: log.Component("alerts.bus")}
}

// Enabled reports whether triggers leave the process
func (b *Bus) Enabled() bool {
	return b.pubsub.Enabled()
}

// Notify publishes t
func (b *Bus) Notify(ctx context.Context, t Trigger) error {
	return b.pubsub.Publish(ctx, redis.AlertsChannel, t)
}

// Listen forwards received triggers to fn until ctx is done
func (b *Bus) Listen(ctx context.Context, fn func(Trigger)) error {
	return b.pubsub.Subscribe(ctx, redis.AlertsChannel, func(payload []byte) {
		var t Trigger
		if err := json.Unmarshal(payload, &t); err != nil {
			b.logger.WithError(err).Warn("Dropping malformed alert message")
			return
		}
		fn(t)
	})
}
