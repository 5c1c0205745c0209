package usecase

import (
	"time"

	"github.com/iho/timebank/internal/domain"
)

func newParticipationEvent(idGen IDGenerator, participationID, eventType string, payload map[string]any, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   participationID,
		AggregateType: domain.AggregateTypeParticipation,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
}
