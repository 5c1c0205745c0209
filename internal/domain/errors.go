package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Every error the engine returns matches exactly one of these
// with errors.Is.
var (
	ErrNotFound                 = errors.New("not found")
	ErrForbidden                = errors.New("forbidden")
	ErrInvalidTransition        = errors.New("invalid transition")
	ErrCapacityExceeded         = errors.New("capacity exceeded")
	ErrReciprocityLimitExceeded = errors.New("reciprocity limit exceeded")
	ErrIntegrityFault           = errors.New("ledger integrity fault")
	ErrValidation               = errors.New("validation failed")
)

var (
	// Not found
	ErrAccountNotFound       = fmt.Errorf("account %w", ErrNotFound)
	ErrListingNotFound       = fmt.Errorf("listing %w", ErrNotFound)
	ErrParticipationNotFound = fmt.Errorf("participation %w", ErrNotFound)
	ErrTransferNotFound      = fmt.Errorf("transfer %w", ErrNotFound)

	// Forbidden
	ErrNotListingCreator = fmt.Errorf("%w: only the listing creator may do this", ErrForbidden)
	ErrNotParty          = fmt.Errorf("%w: account is not a party to this participation", ErrForbidden)
	ErrSelfDealing       = fmt.Errorf("%w: cannot participate in your own listing", ErrForbidden)
	ErrAccountSuspended  = fmt.Errorf("%w: account is suspended", ErrForbidden)

	// Invalid transition
	ErrListingNotActive     = fmt.Errorf("%w: listing not active", ErrInvalidTransition)
	ErrDuplicateProposal    = fmt.Errorf("%w: helper already has a live participation on this listing", ErrInvalidTransition)
	ErrAlreadyConfirmed     = fmt.Errorf("%w: already confirmed, waiting for the other party", ErrInvalidTransition)
	ErrAwaitingConfirmation = fmt.Errorf("%w: both parties must confirm first", ErrInvalidTransition)

	// Capacity
	ErrCapacityReached = fmt.Errorf("%w: capacity already reached", ErrCapacityExceeded)

	// Validation
	ErrInvalidHours = fmt.Errorf("%w: hours must be positive", ErrValidation)
	ErrInvalidEntry = fmt.Errorf("%w: invalid ledger entry", ErrValidation)
	ErrSameAccount  = fmt.Errorf("%w: sender and receiver must differ", ErrValidation)
)

// TransitionError reports a move the participation state machine forbids.
type TransitionError struct {
	From ParticipationStatus
	To   ParticipationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: participation is %s, cannot move to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ReciprocityError carries the guard decision that blocked a settlement.
type ReciprocityError struct {
	AccountID string
	Decision  SpendDecision
}

func (e *ReciprocityError) Error() string {
	return e.Decision.Message
}

func (e *ReciprocityError) Unwrap() error {
	return ErrReciprocityLimitExceeded
}

// IntegrityFaultError describes a cached balance that disagrees with the
// ledger. It is surfaced for manual remediation, never repaired.
type IntegrityFaultError struct {
	AccountID string
	Cached    decimal.Decimal
	Computed  decimal.Decimal
}

func (e *IntegrityFaultError) Error() string {
	return fmt.Sprintf("ledger integrity fault on account %s: cached balance %s, ledger says %s",
		e.AccountID, e.Cached.String(), e.Computed.String())
}

func (e *IntegrityFaultError) Unwrap() error {
	return ErrIntegrityFault
}
