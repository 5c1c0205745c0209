package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

const listingColumns = `id, creator_id, kind, title, capacity, accepted_count, status, created_at, updated_at`

const (
	createListing = `INSERT INTO listings (` + listingColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getListingByID = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	getListingByIDForUpdate = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 FOR UPDATE`

	updateListingCapacity = `UPDATE listings
SET accepted_count = $2, status = $3, updated_at = $4
WHERE id = $1`
)

// ListingRepository implements usecase.ListingRepository.
type ListingRepository struct {
	db DBTX
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return newListingRepository(pool)
}

func newListingRepository(db DBTX) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create creates a new listing.
func (r *ListingRepository) Create(ctx context.Context, tx usecase.Transaction, listing *domain.Listing) error {
	_, err := txConn(tx).Exec(ctx, createListing,
		listing.ID,
		listing.CreatorID,
		string(listing.Kind),
		listing.Title,
		int32(listing.Capacity),
		int32(listing.AcceptedCount),
		string(listing.Status),
		timeToPgTimestamptz(listing.CreatedAt),
		timeToPgTimestamptz(listing.UpdatedAt),
	)
	return err
}

// GetByID retrieves a listing by ID.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	return scanListing(r.db.QueryRow(ctx, getListingByID, id))
}

// GetByIDForUpdate retrieves a listing by ID with a FOR UPDATE lock.
func (r *ListingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Listing, error) {
	return scanListing(txConn(tx).QueryRow(ctx, getListingByIDForUpdate, id))
}

// UpdateCapacity writes the accepted count and status. The table's CHECK
// constraint rejects counts outside [0, capacity].
func (r *ListingRepository) UpdateCapacity(ctx context.Context, tx usecase.Transaction, id string, acceptedCount int, status domain.ListingStatus, updatedAt time.Time) error {
	tag, err := txConn(tx).Exec(ctx, updateListingCapacity, id, int32(acceptedCount), string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		if pgErrorCode(err) == pgErrCheckViolation {
			return fmt.Errorf("%w: accepted count %d out of bounds", domain.ErrValidation, acceptedCount)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var (
		l                       domain.Listing
		kind, status            string
		capacity, acceptedCount int32
		createdAt, updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(&l.ID, &l.CreatorID, &kind, &l.Title, &capacity, &acceptedCount, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}

	l.Kind = domain.ListingKind(kind)
	l.Status = domain.ListingStatus(status)
	l.Capacity = int(capacity)
	l.AcceptedCount = int(acceptedCount)
	l.CreatedAt = createdAt.Time
	l.UpdatedAt = updatedAt.Time

	return &l, nil
}
