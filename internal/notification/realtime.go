package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	platformredis "connect2uni/internal/platform/redis"
)

//go:generate mockgen -source=realtime.go -destination=../../mocks/notification_publisher_mock.go -package=mocks

// Publisher pushes a stored notification to any clients subscribed to the
// recipient's channel.
type Publisher interface {
	Publish(ctx context.Context, n *Notification) error
}

// ChannelFor names the pub/sub channel a user's clients subscribe to.
func ChannelFor(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// RedisPublisher fans notifications out over Redis pub/sub.
type RedisPublisher struct {
	client *platformredis.Client
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *platformredis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.client.Client.Publish(ctx, ChannelFor(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
