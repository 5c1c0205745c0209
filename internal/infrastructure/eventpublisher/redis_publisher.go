package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/timebank/internal/domain"
)

// RedisStreamPublisher appends events to a Redis stream with XADD.
type RedisStreamPublisher struct {
	client redis.Cmdable
	stream string
}

// NewRedisStreamPublisher creates a publisher writing to stream.
func NewRedisStreamPublisher(client redis.Cmdable, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

// Publish appends one stream entry per event.
func (p *RedisStreamPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_id":       event.ID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
			"payload":        string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}

	return nil
}
