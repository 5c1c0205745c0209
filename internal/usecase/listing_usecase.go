package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/timebank/internal/domain"
)

// ListingUseCase registers the listing fields the engine needs. Everything
// else about a listing lives with its owner.
type ListingUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	listingRepo ListingRepository
	idGen       IDGenerator
}

// NewListingUseCase creates a new ListingUseCase.
func NewListingUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	listingRepo ListingRepository,
	idGen IDGenerator,
) *ListingUseCase {
	return &ListingUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		listingRepo: listingRepo,
		idGen:       idGen,
	}
}

// RegisterListingInput represents input for registering a listing.
type RegisterListingInput struct {
	CreatorID string
	Kind      domain.ListingKind
	Title     string
	Capacity  int
}

// RegisterListing creates an ACTIVE listing with no accepted participations.
func (uc *ListingUseCase) RegisterListing(ctx context.Context, input RegisterListingInput) (*domain.Listing, error) {
	if input.Kind == "" {
		input.Kind = domain.ListingKindRequest
	}

	title := strings.TrimSpace(input.Title)
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := domain.ValidateCapacity(input.Capacity); err != nil {
		return nil, err
	}

	creator, err := uc.accountRepo.GetByID(ctx, input.CreatorID)
	if err != nil {
		return nil, err
	}
	if err := creator.EnsureActive(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		ID:            uc.idGen.Generate(),
		CreatorID:     creator.ID,
		Kind:          input.Kind,
		Title:         title,
		Capacity:      input.Capacity,
		AcceptedCount: 0,
		Status:        domain.ListingStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := listing.Validate(); err != nil {
		return nil, err
	}

	err = runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		return uc.listingRepo.Create(ctx, tx, listing)
	})
	if err != nil {
		return nil, err
	}

	return listing, nil
}

// GetListing retrieves a listing by ID.
func (uc *ListingUseCase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	return uc.listingRepo.GetByID(ctx, id)
}
