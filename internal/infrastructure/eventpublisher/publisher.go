package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/infrastructure/metrics"
	"github.com/iho/timebank/internal/usecase"
)

// EventPublisher drains the outbox. Each event gets exactly one delivery
// attempt and is marked published whatever the outcome.
type EventPublisher struct {
	outboxRepo      usecase.OutboxRepository
	publisher       Publisher
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	batchSize       int
	interval        time.Duration
	retention       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	// Retention is how long published events are kept. Zero disables cleanup.
	Retention       time.Duration
	CleanupInterval time.Duration
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Hour
	}

	return &EventPublisher{
		outboxRepo:      cfg.OutboxRepo,
		publisher:       cfg.Publisher,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger.With().Str("component", "event_publisher").Logger(),
		batchSize:       cfg.BatchSize,
		interval:        cfg.Interval,
		retention:       cfg.Retention,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
	}
}

// Start begins the event publishing worker.
// It runs continuously until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Dur("retention", ep.retention).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	cleanup := time.NewTicker(ep.cleanupInterval)
	defer cleanup.Stop()

	// Process immediately on start
	if err := ep.processEvents(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing events on start")
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.processEvents(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error processing events")
			}
		case <-cleanup.C:
			if err := ep.cleanup(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error deleting published events")
			}
		}
	}
}

// processEvents fetches and publishes a batch of unpublished events.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	for _, event := range events {
		if err := ep.publishEvent(ctx, event); err != nil {
			// Delivery is at-most-once: a failed event is logged and dropped.
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			if ep.metrics != nil {
				ep.metrics.EventsFailed.WithLabelValues(event.EventType).Inc()
			}
		} else if ep.metrics != nil {
			ep.metrics.EventsPublished.WithLabelValues(event.EventType).Inc()
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now().UTC()); err != nil {
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event as published")
		}
	}

	return nil
}

// publishEvent publishes a single event.
func (ep *EventPublisher) publishEvent(ctx context.Context, event *domain.OutboxEvent) error {
	ep.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		Msg("publishing event")

	return ep.publisher.Publish(ctx, event)
}

func (ep *EventPublisher) cleanup(ctx context.Context) error {
	if ep.retention <= 0 {
		return nil
	}
	return ep.outboxRepo.DeletePublished(ctx, ep.now().UTC().Add(-ep.retention))
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
