package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/velora/checkout_hold/internal/core/domain"
)

// RedisSink delivers notifications through Redis: transient toasts go
// out on a pub/sub channel the frontend subscribes to, while the
// persistent countdown slot lives under a plain key so late subscribers
// can read the current value.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Notify(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

func (s *RedisSink) Upsert(ctx context.Context, key string, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	if err := s.client.Set(ctx, s.slotKey(key), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store notification slot: %w", err)
	}

	return nil
}

func (s *RedisSink) Dismiss(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.slotKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to clear notification slot: %w", err)
	}

	return nil
}

func (s *RedisSink) slotKey(key string) string {
	return fmt.Sprintf("%s:slot:%s", s.channel, key)
}
