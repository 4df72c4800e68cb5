// Package events announces committed registrations to downstream
// consumers. Delivery is best effort and at least once; the request path
// never waits on it.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authcore/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream key registrations are appended to.
const DefaultStream = "auth.user-registered"

// Publisher delivers one event to the broker.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, evt models.UserRegistered) error
}

// Notifier is what the orchestrator sees: fire and forget.
type Notifier interface {
	NotifyUserRegistered(evt models.UserRegistered)
}

// RedisStreamPublisher appends events to a Redis stream with XADD.
type RedisStreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStreamPublisher returns a publisher writing to stream. A positive
// maxLen trims the stream approximately to that many entries.
func NewRedisStreamPublisher(client redis.Cmdable, stream string, maxLen int64) *RedisStreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) PublishUserRegistered(ctx context.Context, evt models.UserRegistered) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":          evt.ID,
			"email":       evt.Email,
			"displayName": evt.DisplayName,
			"createdAt":   evt.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishUserRegistered(context.Context, models.UserRegistered) error {
	return nil
}
