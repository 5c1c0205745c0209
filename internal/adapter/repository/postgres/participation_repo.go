package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

const participationColumns = `id, listing_id, helper_id, creator_id, role, status, hours,
provider_confirmed, requester_confirmed, message, created_at, updated_at`

const (
	createParticipation = `INSERT INTO participations (` + participationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getParticipationByID = `SELECT ` + participationColumns + ` FROM participations WHERE id = $1`

	getParticipationByIDForUpdate = `SELECT ` + participationColumns + ` FROM participations WHERE id = $1 FOR UPDATE`

	updateParticipation = `UPDATE participations
SET status = $2, hours = $3, provider_confirmed = $4, requester_confirmed = $5, updated_at = $6
WHERE id = $1`

	findLiveParticipation = `SELECT ` + participationColumns + ` FROM participations
WHERE listing_id = $1 AND helper_id = $2 AND status IN ('PENDING', 'ACCEPTED')
LIMIT 1`

	listParticipationsByListing = `SELECT ` + participationColumns + ` FROM participations
WHERE listing_id = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3`
)

// participationLiveIndex is the partial unique index on live participations.
const participationLiveIndex = "participations_live_uniq"

// ParticipationRepository implements usecase.ParticipationRepository.
type ParticipationRepository struct {
	db DBTX
}

// NewParticipationRepository creates a new ParticipationRepository.
func NewParticipationRepository(pool *pgxpool.Pool) *ParticipationRepository {
	return newParticipationRepository(pool)
}

func newParticipationRepository(db DBTX) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// Create inserts a participation. A concurrent live proposal by the same
// helper trips the partial unique index and surfaces as ErrDuplicateProposal.
func (r *ParticipationRepository) Create(ctx context.Context, tx usecase.Transaction, p *domain.Participation) error {
	_, err := txConn(tx).Exec(ctx, createParticipation,
		p.ID,
		p.ListingID,
		p.HelperID,
		p.CreatorID,
		string(p.Role),
		string(p.Status),
		decimalToNumeric(p.Hours),
		p.ProviderConfirmed,
		p.RequesterConfirmed,
		p.Message,
		timeToPgTimestamptz(p.CreatedAt),
		timeToPgTimestamptz(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, participationLiveIndex) {
			return domain.ErrDuplicateProposal
		}
		return err
	}
	return nil
}

// GetByID retrieves a participation by ID.
func (r *ParticipationRepository) GetByID(ctx context.Context, id string) (*domain.Participation, error) {
	return scanParticipation(r.db.QueryRow(ctx, getParticipationByID, id))
}

// GetByIDForUpdate retrieves a participation by ID with a FOR UPDATE lock.
func (r *ParticipationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Participation, error) {
	return scanParticipation(txConn(tx).QueryRow(ctx, getParticipationByIDForUpdate, id))
}

// Update writes the mutable fields of a participation.
func (r *ParticipationRepository) Update(ctx context.Context, tx usecase.Transaction, p *domain.Participation) error {
	tag, err := txConn(tx).Exec(ctx, updateParticipation,
		p.ID,
		string(p.Status),
		decimalToNumeric(p.Hours),
		p.ProviderConfirmed,
		p.RequesterConfirmed,
		timeToPgTimestamptz(p.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipationNotFound
	}
	return nil
}

// FindLive returns the helper's live participation on the listing, or nil.
func (r *ParticipationRepository) FindLive(ctx context.Context, tx usecase.Transaction, listingID, helperID string) (*domain.Participation, error) {
	p, err := scanParticipation(txConn(tx).QueryRow(ctx, findLiveParticipation, listingID, helperID))
	if errors.Is(err, domain.ErrParticipationNotFound) {
		return nil, nil
	}
	return p, err
}

// ListByListing lists a listing's participations oldest first.
func (r *ParticipationRepository) ListByListing(ctx context.Context, listingID string, limit, offset int) ([]*domain.Participation, error) {
	rows, err := r.db.Query(ctx, listParticipationsByListing, listingID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participations := make([]*domain.Participation, 0)
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		participations = append(participations, p)
	}

	return participations, rows.Err()
}

func scanParticipation(row pgx.Row) (*domain.Participation, error) {
	var (
		p                    domain.Participation
		role, status         string
		hours                pgtype.Numeric
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&p.ID,
		&p.ListingID,
		&p.HelperID,
		&p.CreatorID,
		&role,
		&status,
		&hours,
		&p.ProviderConfirmed,
		&p.RequesterConfirmed,
		&p.Message,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrParticipationNotFound
		}
		return nil, err
	}

	p.Role = domain.Role(role)
	p.Status = domain.ParticipationStatus(status)
	p.Hours = numericToDecimal(hours)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}
