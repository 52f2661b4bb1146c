package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/redis/go-redis/v9"
)

// RedisBroker uses Redis pub/sub as the broker. Publish goes out to every
// server instance; each instance's Gateway forwards to its own sockets.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: encode event: %v", apperr.ErrPublishUnavailable, err)
	}
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPublishUnavailable, err)
	}
	return nil
}

// Subscribe opens a subscription on channels. The caller closes it.
func (b *RedisBroker) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return b.client.Subscribe(ctx, channels...)
}
