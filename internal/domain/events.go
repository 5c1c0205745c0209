package domain

import "time"

// Event types
const (
	EventTypeParticipationProposed  = "participation.proposed"
	EventTypeParticipationAccepted  = "participation.accepted"
	EventTypeParticipationCompleted = "participation.completed"
)

// Aggregate types
const (
	AggregateTypeParticipation = "participation"
)

// OutboxEvent is a domain event written in the same transaction as the state
// change it describes and delivered later by the event publisher.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// ParticipationProposedPayload builds the payload for a new proposal.
func ParticipationProposedPayload(p *Participation) map[string]any {
	return map[string]any{
		"participation_id": p.ID,
		"listing_id":       p.ListingID,
		"helper_id":        p.HelperID,
		"creator_id":       p.CreatorID,
		"role":             string(p.Role),
	}
}

// ParticipationAcceptedPayload builds the payload for an acceptance.
func ParticipationAcceptedPayload(p *Participation, l *Listing) map[string]any {
	return map[string]any{
		"participation_id": p.ID,
		"listing_id":       p.ListingID,
		"helper_id":        p.HelperID,
		"hours":            p.Hours.String(),
		"accepted_count":   l.AcceptedCount,
		"listing_status":   string(l.Status),
	}
}

// ParticipationCompletedPayload builds the payload for a settlement.
func ParticipationCompletedPayload(p *Participation, t *Transfer) map[string]any {
	return map[string]any{
		"participation_id": p.ID,
		"listing_id":       p.ListingID,
		"transfer_id":      t.ID,
		"provider_id":      p.ProviderID(),
		"requester_id":     p.RequesterID(),
		"hours":            t.Amount.String(),
	}
}
