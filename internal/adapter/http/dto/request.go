package dto

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{DisplayName: r.DisplayName}
}

// RegisterListingRequest represents a request to post a listing. The creator
// is the acting account.
type RegisterListingRequest struct {
	Kind     string `json:"kind"     validate:"omitempty,oneof=REQUEST OFFER"`
	Title    string `json:"title"    validate:"required,max=255"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=1000"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterListingRequest) ToUseCaseInput(creatorID string) usecase.RegisterListingInput {
	return usecase.RegisterListingInput{
		CreatorID: creatorID,
		Kind:      domain.ListingKind(r.Kind),
		Title:     r.Title,
		Capacity:  r.Capacity,
	}
}

// ProposeRequest represents a helper's proposal on a listing.
type ProposeRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

// ToUseCaseInput converts to use case input.
func (r *ProposeRequest) ToUseCaseInput(listingID, helperID string) usecase.ProposeInput {
	return usecase.ProposeInput{
		ListingID: listingID,
		HelperID:  helperID,
		Message:   r.Message,
	}
}

// AcceptRequest represents the listing creator agreeing the hours.
type AcceptRequest struct {
	Hours json.Number `json:"hours" validate:"required,positive_amount"`
}

// ToUseCaseInput converts to use case input.
func (r *AcceptRequest) ToUseCaseInput(participationID, actorID string) (usecase.AcceptInput, error) {
	hours, err := decimal.NewFromString(r.Hours.String())
	if err != nil {
		return usecase.AcceptInput{}, fmt.Errorf("%w: hours: %w", ErrInvalidRequest, err)
	}

	return usecase.AcceptInput{
		ParticipationID: participationID,
		ActingAccountID: actorID,
		Hours:           hours,
	}, nil
}

// AdjustmentRequest represents a manual ledger correction.
type AdjustmentRequest struct {
	Amount      json.Number `json:"amount"      validate:"required,nonzero_amount"`
	Type        string      `json:"type"        validate:"omitempty,oneof=ADJUSTMENT PENALTY"`
	Description string      `json:"description" validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *AdjustmentRequest) ToUseCaseInput(accountID string) (usecase.AdjustInput, error) {
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return usecase.AdjustInput{}, fmt.Errorf("%w: amount: %w", ErrInvalidRequest, err)
	}

	return usecase.AdjustInput{
		AccountID:   accountID,
		Description: r.Description,
		Type:        domain.TransactionType(r.Type),
		Amount:      amount,
	}, nil
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
