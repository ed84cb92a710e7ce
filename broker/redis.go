package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultChannel = "pictobattle:events"

// RedisBus fans envelopes out over a Redis pub/sub channel.
type RedisBus struct {
	client  *redis.Client
	channel string
	subs    []*redis.PubSub
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", env.Kind, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, h Handler) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.subs = append(b.subs, sub)

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Warn().Err(err).Msg("dropping malformed envelope")
					continue
				}
				h(env)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	for _, sub := range b.subs {
		sub.Close()
	}
	b.subs = nil
	return nil
}
