package redis

import (
	"context"
	"encoding/json"
	"fmt"
)

// PubSub fans messages out between processes (worker → API server)
// Disabled client: Publish 는 버리고 Subscribe 는 즉시 반환
type PubSub struct {
	client *Client
	prefix string
}

// NewPubSub creates a publisher/subscriber under prefix
func NewPubSub(client *Client, prefix string) *PubSub {
	return &PubSub{client: client, prefix: prefix}
}

func (p *PubSub) channel(name string) string {
	return fmt.Sprintf("%s:%s", p.prefix, name)
}

// Enabled reports whether messages actually travel
func (p *PubSub) Enabled() bool {
	return p.client.Enabled()
}

// Publish sends v as JSON on channel
func (p *PubSub) Publish(ctx context.Context, channel string, v interface{}) error {
	if !p.client.Enabled() {
		return nil
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := p.client.rdb.Publish(ctx, p.channel(channel), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe calls fn for every payload on channel until ctx is done
func (p *PubSub) Subscribe(ctx context.Context, channel string, fn func(payload []byte)) error {
	if !p.client.Enabled() {
		return nil
	}

	sub := p.client.rdb.Subscribe(ctx, p.channel(channel))
	defer sub.Close()

	// 구독 확인 후 메시지 수신
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			fn([]byte(msg.Payload))
		}
	}
}

// AlertsChannel carries triggered price alerts
const AlertsChannel = "alerts:triggered"
