package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const channelPrefix = "changes:"

// RedisBridge publishes change events over Redis so every server instance
// sees every write. With a nil client it degrades to the local broker.
type RedisBridge struct {
	rdb    *redis.Client
	broker *Broker
}

// NewRedisBridge creates a bridge that re-publishes Redis events into broker
func NewRedisBridge(rdb *redis.Client, broker *Broker) *RedisBridge {
	return &RedisBridge{rdb: rdb, broker: broker}
}

// Channel derives the Redis channel name for a collection event.
func Channel(event Event) string {
	return channelPrefix + string(event.Collection)
}

// Publish sends event to Redis, or straight to the local broker without Redis
func (b *RedisBridge) Publish(ctx context.Context, event Event) error {
	if b.rdb == nil {
		return b.broker.Publish(ctx, event)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.rdb.Publish(ctx, Channel(event), payload).Err()
}

// Start subscribes to `changes:*` and feeds every event into the local broker
// until ctx is cancelled.
func (b *RedisBridge) Start(ctx context.Context) error {
	if b.rdb == nil {
		return nil
	}
	sub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	// Wait for confirmation so no event published after Start is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to change feed: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.forward(ctx, msg)
			}
		}
	}()

	return nil
}

func (b *RedisBridge) forward(ctx context.Context, msg *redis.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("PANIC in change feed subscriber")
		}
	}()

	var event Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		log.Error().Err(err).Str("channel", msg.Channel).Msg("Failed to decode change event")
		return
	}
	if !strings.HasSuffix(msg.Channel, string(event.Collection)) {
		log.Warn().Str("channel", msg.Channel).Str("collection", string(event.Collection)).Msg("Change event on unexpected channel")
	}
	_ = b.broker.Publish(ctx, event)
}
