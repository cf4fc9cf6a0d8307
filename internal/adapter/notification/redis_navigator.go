package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type navigationCommand struct {
	Action string `json:"action"`
	URL    string `json:"url,omitempty"`
}

// RedisNavigator tells the frontend to leave the checkout page by
// publishing a navigation command on the session's channel.
type RedisNavigator struct {
	client  *redis.Client
	channel string
}

func NewRedisNavigator(client *redis.Client, channel string) *RedisNavigator {
	return &RedisNavigator{client: client, channel: channel}
}

func (n *RedisNavigator) Redirect(ctx context.Context, url string) error {
	return n.publish(ctx, navigationCommand{Action: "redirect", URL: url})
}

func (n *RedisNavigator) Reload(ctx context.Context) error {
	return n.publish(ctx, navigationCommand{Action: "reload"})
}

func (n *RedisNavigator) publish(ctx context.Context, cmd navigationCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to encode navigation command: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish navigation command: %w", err)
	}

	return nil
}
