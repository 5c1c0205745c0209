package memory

import (
	"context"
	"time"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	st.outbox = append(st.outbox, *event)
	return nil
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var result []*domain.OutboxEvent
	r.store.view(func(st *state) {
		for _, e := range st.outbox {
			if len(result) == limit {
				return
			}
			if !e.Published {
				e := e
				result = append(result, &e)
			}
		}
	})
	return result, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.update(ctx, func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				at := publishedAt
				st.outbox[i].Published = true
				st.outbox[i].PublishedAt = &at
				return nil
			}
		}
		return nil
	})
}

// GetByAggregate retrieves events for a specific aggregate.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	var result []*domain.OutboxEvent
	r.store.view(func(st *state) {
		for _, e := range st.outbox {
			if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
				e := e
				result = append(result, &e)
			}
		}
	})
	return paginate(result, limit, offset), nil
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.update(ctx, func(st *state) error {
		kept := st.outbox[:0]
		for _, e := range st.outbox {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				continue
			}
			kept = append(kept, e)
		}
		st.outbox = kept
		return nil
	})
}
