package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

const entryColumns = `id, account_id, debit, credit, running_balance, type, description, participation_id, created_at`

const (
	createEntry = `INSERT INTO ledger_entries
(account_id, debit, credit, running_balance, type, description, participation_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	listEntriesByAccount = `SELECT ` + entryColumns + ` FROM ledger_entries
WHERE account_id = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3`

	countEntriesByAccount = `SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`

	sumEntriesByAccount = `SELECT COALESCE(SUM(credit), 0), COALESCE(SUM(debit), 0)
FROM ledger_entries WHERE account_id = $1`

	listEntriesByParticipation = `SELECT ` + entryColumns + ` FROM ledger_entries
WHERE participation_id = $1
ORDER BY id`

	sumEntriesByType = `SELECT COALESCE(SUM(credit), 0), COALESCE(SUM(debit), 0)
FROM ledger_entries WHERE type = $1`
)

// EntryRepository implements usecase.EntryRepository. It only ever inserts.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create appends an entry and assigns its ID.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return txConn(tx).QueryRow(ctx, createEntry,
		entry.AccountID,
		decimalToNumeric(entry.Debit),
		decimalToNumeric(entry.Credit),
		decimalToNumeric(entry.RunningBalance),
		string(entry.Type),
		entry.Description,
		stringPtrToText(entry.ParticipationID),
		timeToPgTimestamptz(entry.CreatedAt),
	).Scan(&entry.ID)
}

// ListByAccount returns an account's entries newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, listEntriesByAccount, accountID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// CountByAccount counts an account's entries.
func (r *EntryRepository) CountByAccount(ctx context.Context, accountID string) (int, error) {
	var count int64
	if err := r.db.QueryRow(ctx, countEntriesByAccount, accountID).Scan(&count); err != nil {
		return 0, err
	}
	return int(count), nil
}

// SumByAccount totals an account's credits and debits inside tx.
func (r *EntryRepository) SumByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	return scanSums(txConn(tx).QueryRow(ctx, sumEntriesByAccount, accountID))
}

// ListByParticipation returns the entries a settlement posted.
func (r *EntryRepository) ListByParticipation(ctx context.Context, participationID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, listEntriesByParticipation, participationID)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// SumByType totals credits and debits of one transaction type ledger-wide.
func (r *EntryRepository) SumByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, decimal.Decimal, error) {
	return scanSums(r.db.QueryRow(ctx, sumEntriesByType, string(txType)))
}

func scanSums(row pgx.Row) (decimal.Decimal, decimal.Decimal, error) {
	var credits, debits pgtype.Numeric
	if err := row.Scan(&credits, &debits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return numericToDecimal(credits), numericToDecimal(debits), nil
}

func collectEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		var (
			e                      domain.LedgerEntry
			debit, credit, running pgtype.Numeric
			txType                 string
			participationID        pgtype.Text
			createdAt              pgtype.Timestamptz
		)

		err := rows.Scan(&e.ID, &e.AccountID, &debit, &credit, &running, &txType, &e.Description, &participationID, &createdAt)
		if err != nil {
			return nil, err
		}

		e.Debit = numericToDecimal(debit)
		e.Credit = numericToDecimal(credit)
		e.RunningBalance = numericToDecimal(running)
		e.Type = domain.TransactionType(txType)
		e.ParticipationID = textToStringPtr(participationID)
		e.CreatedAt = createdAt.Time

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
