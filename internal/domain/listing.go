package domain

import (
	"fmt"
	"time"
)

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusFull      ListingStatus = "FULL"
	ListingStatusExpired   ListingStatus = "EXPIRED"
	ListingStatusCompleted ListingStatus = "COMPLETED"
	ListingStatusCancelled ListingStatus = "CANCELLED"
)

var validListingStatuses = map[ListingStatus]bool{
	ListingStatusActive:    true,
	ListingStatusFull:      true,
	ListingStatusExpired:   true,
	ListingStatusCompleted: true,
	ListingStatusCancelled: true,
}

// IsValid reports whether s is a known listing status.
func (s ListingStatus) IsValid() bool {
	return validListingStatuses[s]
}

// ListingKind says which side of the exchange the listing creator is on.
type ListingKind string

const (
	// ListingKindRequest: the creator asks for help, helpers provide it.
	ListingKindRequest ListingKind = "REQUEST"
	// ListingKindOffer: the creator offers help, helpers receive it.
	ListingKindOffer ListingKind = "OFFER"
)

// IsValid reports whether k is a known listing kind.
func (k ListingKind) IsValid() bool {
	return k == ListingKindRequest || k == ListingKindOffer
}

// HelperRole returns the role a helper takes on a listing of this kind.
func (k ListingKind) HelperRole() Role {
	if k == ListingKindOffer {
		return RoleRequester
	}
	return RoleProvider
}

// Listing holds the fields of an externally owned listing that the engine
// reads and writes. AcceptedCount and Status are written only by the
// capacity arbiter.
type Listing struct {
	ID            string
	CreatorID     string
	Kind          ListingKind
	Title         string
	Capacity      int
	AcceptedCount int
	Status        ListingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Label is used in ledger descriptions.
func (l *Listing) Label() string {
	if l.Title != "" {
		return l.Title
	}
	return l.ID
}

// HasRoom reports whether another participation can be accepted.
func (l *Listing) HasRoom() bool {
	return l.AcceptedCount < l.Capacity
}

// CheckOpen returns the reason a listing cannot take another participation.
func (l *Listing) CheckOpen() error {
	if !l.HasRoom() {
		return ErrCapacityReached
	}
	if l.Status != ListingStatusActive {
		return ErrListingNotActive
	}
	return nil
}

// Accept increments AcceptedCount and moves the listing to FULL when the
// last slot is taken.
func (l *Listing) Accept(now time.Time) error {
	if err := l.CheckOpen(); err != nil {
		return err
	}

	l.AcceptedCount++
	if l.AcceptedCount == l.Capacity {
		l.Status = ListingStatusFull
	}
	l.UpdatedAt = now

	return nil
}

// Release gives back one accepted slot. A FULL listing becomes ACTIVE again.
func (l *Listing) Release(now time.Time) {
	if l.AcceptedCount > 0 {
		l.AcceptedCount--
	}
	if l.Status == ListingStatusFull {
		l.Status = ListingStatusActive
	}
	l.UpdatedAt = now
}

// Validate checks the capacity invariant.
func (l *Listing) Validate() error {
	if l.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrValidation)
	}
	if !l.Kind.IsValid() {
		return fmt.Errorf("%w: unknown listing kind %q", ErrValidation, l.Kind)
	}
	if !l.Status.IsValid() {
		return fmt.Errorf("%w: unknown listing status %q", ErrValidation, l.Status)
	}
	if l.AcceptedCount < 0 || l.AcceptedCount > l.Capacity {
		return fmt.Errorf("%w: accepted count %d outside [0, %d]", ErrValidation, l.AcceptedCount, l.Capacity)
	}
	if l.Status == ListingStatusFull && l.AcceptedCount != l.Capacity {
		return fmt.Errorf("%w: FULL listing with free capacity", ErrValidation)
	}
	if l.Status == ListingStatusActive && l.AcceptedCount == l.Capacity {
		return fmt.Errorf("%w: ACTIVE listing at capacity", ErrValidation)
	}
	return nil
}
