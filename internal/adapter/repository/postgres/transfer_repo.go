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

const transferColumns = `id, sender_id, receiver_id, participation_id, amount, type, notes, created_at`

const (
	createTransfer = `INSERT INTO transfers (` + transferColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getTransferByID = `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	listTransfersByAccount = `SELECT ` + transferColumns + ` FROM transfers
WHERE sender_id = $1 OR receiver_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	listTransfersByParticipation = `SELECT ` + transferColumns + ` FROM transfers
WHERE participation_id = $1
ORDER BY created_at`
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	db DBTX
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return newTransferRepository(pool)
}

func newTransferRepository(db DBTX) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create creates a new transfer.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	_, err := txConn(tx).Exec(ctx, createTransfer,
		transfer.ID,
		transfer.SenderID,
		transfer.ReceiverID,
		transfer.ParticipationID,
		decimalToNumeric(transfer.Amount),
		string(transfer.Type),
		transfer.Notes,
		timeToPgTimestamptz(transfer.CreatedAt),
	)
	return err
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	t, err := scanTransfer(r.db.QueryRow(ctx, getTransferByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransferNotFound
	}
	return t, err
}

// ListByAccount lists transfers where the account is sender or receiver,
// newest first.
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	rows, err := r.db.Query(ctx, listTransfersByAccount, accountID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}

	return collectTransfers(rows)
}

// ListByParticipation lists the transfers a participation produced.
func (r *TransferRepository) ListByParticipation(ctx context.Context, participationID string) ([]*domain.Transfer, error) {
	rows, err := r.db.Query(ctx, listTransfersByParticipation, participationID)
	if err != nil {
		return nil, err
	}

	return collectTransfers(rows)
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	var (
		t         domain.Transfer
		amount    pgtype.Numeric
		txType    string
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(&t.ID, &t.SenderID, &t.ReceiverID, &t.ParticipationID, &amount, &txType, &t.Notes, &createdAt)
	if err != nil {
		return nil, err
	}

	t.Amount = numericToDecimal(amount)
	t.Type = domain.TransactionType(txType)
	t.CreatedAt = createdAt.Time

	return &t, nil
}

func collectTransfers(rows pgx.Rows) ([]*domain.Transfer, error) {
	defer rows.Close()

	transfers := make([]*domain.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}

	return transfers, rows.Err()
}
