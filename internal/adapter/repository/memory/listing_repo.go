package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// ListingRepository implements usecase.ListingRepository.
type ListingRepository struct {
	store *Store
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(store *Store) *ListingRepository {
	return &ListingRepository{store: store}
}

// Create creates a new listing.
func (r *ListingRepository) Create(ctx context.Context, tx usecase.Transaction, listing *domain.Listing) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	if _, ok := st.listings[listing.ID]; ok {
		return fmt.Errorf("listing %s already exists", listing.ID)
	}
	st.listings[listing.ID] = *listing
	return nil
}

// GetByID retrieves a listing by ID.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	var (
		listing domain.Listing
		ok      bool
	)
	r.store.view(func(st *state) {
		listing, ok = st.listings[id]
	})
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &listing, nil
}

// GetByIDForUpdate retrieves a listing inside tx.
func (r *ListingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Listing, error) {
	st, err := stateOf(tx)
	if err != nil {
		return nil, err
	}
	listing, ok := st.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &listing, nil
}

// UpdateCapacity writes the accepted count and status.
func (r *ListingRepository) UpdateCapacity(ctx context.Context, tx usecase.Transaction, id string, acceptedCount int, status domain.ListingStatus, updatedAt time.Time) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	listing, ok := st.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	if acceptedCount < 0 || acceptedCount > listing.Capacity {
		return fmt.Errorf("%w: accepted count %d outside [0, %d]", domain.ErrValidation, acceptedCount, listing.Capacity)
	}
	listing.AcceptedCount = acceptedCount
	listing.Status = status
	listing.UpdatedAt = updatedAt
	st.listings[id] = listing
	return nil
}
