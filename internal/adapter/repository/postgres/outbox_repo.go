package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

const outboxColumns = `id, aggregate_id, aggregate_type, event_type, payload, created_at, published, published_at`

const (
	createOutboxEvent = `INSERT INTO outbox_events (` + outboxColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getUnpublishedEvents = `SELECT ` + outboxColumns + ` FROM outbox_events
WHERE published = FALSE
ORDER BY created_at, id
LIMIT $1`

	markEventPublished = `UPDATE outbox_events SET published = TRUE, published_at = $2 WHERE id = $1`

	getEventsByAggregate = `SELECT ` + outboxColumns + ` FROM outbox_events
WHERE aggregate_type = $1 AND aggregate_id = $2
ORDER BY created_at, id
LIMIT $3 OFFSET $4`

	deletePublishedEvents = `DELETE FROM outbox_events WHERE published = TRUE AND published_at < $1`
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db DBTX
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return newOutboxRepository(pool)
}

func newOutboxRepository(db DBTX) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = txConn(tx).Exec(ctx, createOutboxEvent,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		payload,
		timeToPgTimestamptz(event.CreatedAt),
		event.Published,
		pgtype.Timestamptz{},
	)
	return err
}

// GetUnpublished retrieves unpublished events oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return r.query(ctx, getUnpublishedEvents, int32(limit))
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.db.Exec(ctx, markEventPublished, id, timeToPgTimestamptz(publishedAt))
	return err
}

// GetByAggregate retrieves events for a specific aggregate.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	return r.query(ctx, getEventsByAggregate, aggregateType, aggregateID, int32(limit), int32(offset))
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	_, err := r.db.Exec(ctx, deletePublishedEvents, timeToPgTimestamptz(before))
	return err
}

func (r *OutboxRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var (
			e                      domain.OutboxEvent
			payload                []byte
			createdAt, publishedAt pgtype.Timestamptz
		)

		err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &payload, &createdAt, &e.Published, &publishedAt)
		if err != nil {
			return nil, err
		}

		if payload != nil {
			_ = json.Unmarshal(payload, &e.Payload)
		}
		e.CreatedAt = createdAt.Time
		if publishedAt.Valid {
			t := publishedAt.Time
			e.PublishedAt = &t
		}

		events = append(events, &e)
	}

	return events, rows.Err()
}
