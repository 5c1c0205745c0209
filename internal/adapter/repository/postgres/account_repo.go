package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

const accountColumns = `id, display_name, balance, active, created_at, updated_at`

const (
	createAccount = `INSERT INTO accounts (` + accountColumns + `)
VALUES ($1, $2, $3, $4, $5, $6)`

	getAccountByID = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	getAccountByIDForUpdate = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	getAccountsByIDsForUpdate = `SELECT ` + accountColumns + ` FROM accounts
WHERE id = ANY($1::text[])
ORDER BY id
FOR UPDATE`

	updateAccountBalance = `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`

	listAccounts = `SELECT ` + accountColumns + ` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := txConn(tx).Exec(ctx, createAccount,
		account.ID,
		account.DisplayName,
		decimalToNumeric(account.Balance),
		account.Active,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, getAccountByID, id))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return scanAccount(txConn(tx).QueryRow(ctx, getAccountByIDForUpdate, id))
}

// GetByIDsForUpdate locks the accounts in ascending id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := txConn(tx).Query(ctx, getAccountsByIDsForUpdate, ids)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// UpdateBalance updates the cached balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	tag, err := txConn(tx).Exec(ctx, updateAccountBalance, id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, listAccounts, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a                    domain.Account
		balance              pgtype.Numeric
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(&a.ID, &a.DisplayName, &balance, &a.Active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	a.Balance = numericToDecimal(balance)
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}
