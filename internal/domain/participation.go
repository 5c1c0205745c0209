package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the part a party plays in a participation.
type Role string

const (
	// RoleProvider renders the service and is credited.
	RoleProvider Role = "PROVIDER"
	// RoleRequester receives the service and is debited.
	RoleRequester Role = "REQUESTER"
)

// ParticipationStatus is the state of one helper's relationship to a listing.
type ParticipationStatus string

const (
	ParticipationPending   ParticipationStatus = "PENDING"
	ParticipationAccepted  ParticipationStatus = "ACCEPTED"
	ParticipationCompleted ParticipationStatus = "COMPLETED"
	ParticipationDeclined  ParticipationStatus = "DECLINED"
	ParticipationCancelled ParticipationStatus = "CANCELLED"
)

// participationTransitions is the complete transition table. Statuses
// without an entry are terminal.
var participationTransitions = map[ParticipationStatus][]ParticipationStatus{
	ParticipationPending:  {ParticipationAccepted, ParticipationDeclined, ParticipationCancelled},
	ParticipationAccepted: {ParticipationCompleted, ParticipationDeclined, ParticipationCancelled},
}

// AllParticipationStatuses lists every status, in lifecycle order.
var AllParticipationStatuses = []ParticipationStatus{
	ParticipationPending,
	ParticipationAccepted,
	ParticipationCompleted,
	ParticipationDeclined,
	ParticipationCancelled,
}

// IsValid reports whether s is a known status.
func (s ParticipationStatus) IsValid() bool {
	for _, known := range AllParticipationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the table allows s -> next.
func (s ParticipationStatus) CanTransitionTo(next ParticipationStatus) bool {
	for _, allowed := range participationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsLive reports whether the participation still occupies the helper's single
// proposal slot on its listing.
func (s ParticipationStatus) IsLive() bool {
	return s == ParticipationPending || s == ParticipationAccepted
}

// Participation links one helper to one listing.
type Participation struct {
	ID                 string
	ListingID          string
	HelperID           string
	CreatorID          string
	Role               Role
	Status             ParticipationStatus
	Hours              decimal.Decimal
	ProviderConfirmed  bool
	RequesterConfirmed bool
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProviderID returns the account that renders the service.
func (p *Participation) ProviderID() string {
	if p.Role == RoleProvider {
		return p.HelperID
	}
	return p.CreatorID
}

// RequesterID returns the account that receives the service.
func (p *Participation) RequesterID() string {
	if p.Role == RoleProvider {
		return p.CreatorID
	}
	return p.HelperID
}

// IsParty reports whether accountID is the provider or the requester.
func (p *Participation) IsParty(accountID string) bool {
	return accountID == p.HelperID || accountID == p.CreatorID
}

// BothConfirmed reports whether both votes are in.
func (p *Participation) BothConfirmed() bool {
	return p.ProviderConfirmed && p.RequesterConfirmed
}

func (p *Participation) transition(next ParticipationStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return &TransitionError{From: p.Status, To: next}
	}
	p.Status = next
	p.UpdatedAt = now
	return nil
}

// Accept records the agreed hours and moves PENDING -> ACCEPTED.
func (p *Participation) Accept(hours decimal.Decimal, now time.Time) error {
	if p.Status != ParticipationPending {
		return &TransitionError{From: p.Status, To: ParticipationAccepted}
	}
	if err := ValidateHours(hours); err != nil {
		return err
	}
	if err := p.transition(ParticipationAccepted, now); err != nil {
		return err
	}
	p.Hours = hours
	return nil
}

// Close ends a live participation on behalf of actorID. The helper withdraws
// (CANCELLED), the listing creator declines (DECLINED). It returns the status
// the participation had before, so the caller knows whether a capacity slot
// must be released.
func (p *Participation) Close(actorID string, now time.Time) (ParticipationStatus, error) {
	var next ParticipationStatus
	switch actorID {
	case p.HelperID:
		next = ParticipationCancelled
	case p.CreatorID:
		next = ParticipationDeclined
	default:
		return p.Status, ErrNotParty
	}

	prev := p.Status
	if err := p.transition(next, now); err != nil {
		return prev, err
	}
	return prev, nil
}

// Confirm registers actorID's completion vote. It returns true when this vote
// completes the pair. Voting twice is an error, not a no-op.
func (p *Participation) Confirm(actorID string, now time.Time) (bool, error) {
	if !p.IsParty(actorID) {
		return false, ErrNotParty
	}
	if p.Status != ParticipationAccepted {
		return false, &TransitionError{From: p.Status, To: ParticipationCompleted}
	}

	switch actorID {
	case p.ProviderID():
		if p.ProviderConfirmed {
			return false, ErrAlreadyConfirmed
		}
		p.ProviderConfirmed = true
	case p.RequesterID():
		if p.RequesterConfirmed {
			return false, ErrAlreadyConfirmed
		}
		p.RequesterConfirmed = true
	}
	p.UpdatedAt = now

	return p.BothConfirmed(), nil
}

// Complete moves ACCEPTED -> COMPLETED once both parties confirmed.
func (p *Participation) Complete(now time.Time) error {
	if !p.BothConfirmed() {
		return ErrAwaitingConfirmation
	}
	return p.transition(ParticipationCompleted, now)
}
