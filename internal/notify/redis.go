package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes the id of each completed check on a channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects lazily to the server at url
func NewRedisPublisher(url, channel string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisPublisher{client: redis.NewClient(opt), channel: channel}, nil
}

// Notify implements Notifier
func (p *RedisPublisher) Notify(ctx context.Context, checkID int64) error {
	if err := p.client.Publish(ctx, p.channel, strconv.FormatInt(checkID, 10)).Err(); err != nil {
		return fmt.Errorf("publish check %d: %w", checkID, err)
	}
	return nil
}

// Close releases the connection pool
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
