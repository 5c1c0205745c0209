package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in ascending id order and returns
	// the ones that exist.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// ListingRepository defines data access for the listing fields the engine
// owns.
type ListingRepository interface {
	Create(ctx context.Context, tx Transaction, listing *domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Listing, error)
	UpdateCapacity(ctx context.Context, tx Transaction, id string, acceptedCount int, status domain.ListingStatus, updatedAt time.Time) error
}

// ParticipationRepository defines data access for participations.
type ParticipationRepository interface {
	// Create returns domain.ErrDuplicateProposal when the helper already has a
	// live participation on the listing.
	Create(ctx context.Context, tx Transaction, p *domain.Participation) error
	GetByID(ctx context.Context, id string) (*domain.Participation, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Participation, error)
	Update(ctx context.Context, tx Transaction, p *domain.Participation) error
	// FindLive returns the helper's PENDING or ACCEPTED participation on the
	// listing, or nil when there is none.
	FindLive(ctx context.Context, tx Transaction, listingID, helperID string) (*domain.Participation, error)
	ListByListing(ctx context.Context, listingID string, limit, offset int) ([]*domain.Participation, error)
}

// EntryRepository defines data access for ledger entries. Entries are never
// updated or deleted.
type EntryRepository interface {
	// Create assigns entry.ID.
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	// ListByAccount returns entries newest first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	CountByAccount(ctx context.Context, accountID string) (int, error)
	SumByAccount(ctx context.Context, tx Transaction, accountID string) (credits, debits decimal.Decimal, err error)
	ListByParticipation(ctx context.Context, participationID string) ([]*domain.LedgerEntry, error)
	// SumByType returns ledger-wide totals for one transaction type.
	SumByType(ctx context.Context, txType domain.TransactionType) (credits, debits decimal.Decimal, err error)
}

// TransferRepository defines data access for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
	ListByParticipation(ctx context.Context, participationID string) ([]*domain.Transfer, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a whole unit of work when the store reports a transient
// conflict such as a deadlock or serialization failure.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
