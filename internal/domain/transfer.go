package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer summarises one settlement's pair of ledger entries for audit and
// reporting. The entries stay authoritative.
type Transfer struct {
	CreatedAt       time.Time
	ID              string
	SenderID        string
	ReceiverID      string
	ParticipationID string
	Notes           string
	Type            TransactionType
	Amount          decimal.Decimal
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if t.SenderID == t.ReceiverID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidHours
	}

	return nil
}
