package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/infrastructure/metrics"
)

// CapacityArbiter is the only writer of a listing's accepted count and
// status. Both operations run inside the caller's transaction and hold the
// listing row lock for the whole read-check-write.
type CapacityArbiter struct {
	listingRepo ListingRepository
	metrics     *metrics.Metrics
}

// NewCapacityArbiter creates a new CapacityArbiter.
func NewCapacityArbiter(listingRepo ListingRepository, m *metrics.Metrics) *CapacityArbiter {
	return &CapacityArbiter{
		listingRepo: listingRepo,
		metrics:     m,
	}
}

// TryAccept takes one slot on the listing, moving it to FULL when the last
// slot goes.
func (a *CapacityArbiter) TryAccept(ctx context.Context, tx Transaction, listingID string) (*domain.Listing, error) {
	listing, err := a.listingRepo.GetByIDForUpdate(ctx, tx, listingID)
	if err != nil {
		return nil, err
	}

	if err := listing.Accept(time.Now().UTC()); err != nil {
		if a.metrics != nil && errors.Is(err, domain.ErrCapacityExceeded) {
			a.metrics.CapacityRejections.Inc()
		}
		return nil, err
	}

	if err := a.listingRepo.UpdateCapacity(ctx, tx, listing.ID, listing.AcceptedCount, listing.Status, listing.UpdatedAt); err != nil {
		return nil, err
	}

	return listing, nil
}

// Release gives a slot back. A FULL listing becomes ACTIVE again.
func (a *CapacityArbiter) Release(ctx context.Context, tx Transaction, listingID string) (*domain.Listing, error) {
	listing, err := a.listingRepo.GetByIDForUpdate(ctx, tx, listingID)
	if err != nil {
		return nil, err
	}

	listing.Release(time.Now().UTC())

	if err := a.listingRepo.UpdateCapacity(ctx, tx, listing.ID, listing.AcceptedCount, listing.Status, listing.UpdatedAt); err != nil {
		return nil, err
	}

	return listing, nil
}
