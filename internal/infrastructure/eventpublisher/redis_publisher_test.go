package eventpublisher

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iho/timebank/internal/domain"
)

func TestRedisStreamPublisher(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := NewRedisStreamPublisher(client, "timebank:events")
	ctx := context.Background()

	err := p.Publish(ctx, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "part-1",
		AggregateType: domain.AggregateTypeParticipation,
		EventType:     domain.EventTypeParticipationCompleted,
		Payload:       map[string]any{"hours": "2.00"},
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	msgs, err := client.XRange(ctx, "timebank:events", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one stream entry, got %d", len(msgs))
	}
	if got := msgs[0].Values["event_type"]; got != domain.EventTypeParticipationCompleted {
		t.Fatalf("unexpected event_type %v", got)
	}
	if got := msgs[0].Values["payload"]; got != `{"hours":"2.00"}` {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestRedisStreamPublisherServerDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	s.Close()

	p := NewRedisStreamPublisher(client, "timebank:events")
	if err := p.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"}); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
