package notification

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/velora/checkout_hold/internal/core/ports"
)

// RedisChannels builds the per-session Redis collaborators. Each session
// gets its own channel under the prefix ("notify:{session}" and
// "notify:{session}:nav"), which also namespaces the countdown slot key.
type RedisChannels struct {
	client *redis.Client
	prefix string
}

func NewRedisChannels(client *redis.Client, prefix string) *RedisChannels {
	return &RedisChannels{client: client, prefix: prefix}
}

func (c *RedisChannels) SinkFor(sessionID uuid.UUID) ports.NotificationSink {
	return NewRedisSink(c.client, fmt.Sprintf("%s:%s", c.prefix, sessionID))
}

func (c *RedisChannels) NavigatorFor(sessionID uuid.UUID) ports.Navigator {
	return NewRedisNavigator(c.client, fmt.Sprintf("%s:%s:nav", c.prefix, sessionID))
}
