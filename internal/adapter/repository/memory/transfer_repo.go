package memory

import (
	"context"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	store *Store
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

// Create creates a new transfer.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	st.transfers = append(st.transfers, *transfer)
	return nil
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	var found *domain.Transfer
	r.store.view(func(st *state) {
		for _, t := range st.transfers {
			if t.ID == id {
				t := t
				found = &t
				return
			}
		}
	})
	if found == nil {
		return nil, domain.ErrTransferNotFound
	}
	return found, nil
}

// ListByAccount lists transfers the account sent or received, newest first.
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	var result []*domain.Transfer
	r.store.view(func(st *state) {
		for i := len(st.transfers) - 1; i >= 0; i-- {
			t := st.transfers[i]
			if t.SenderID == accountID || t.ReceiverID == accountID {
				result = append(result, &t)
			}
		}
	})
	return paginate(result, limit, offset), nil
}

// ListByParticipation lists the transfers a participation produced.
func (r *TransferRepository) ListByParticipation(ctx context.Context, participationID string) ([]*domain.Transfer, error) {
	result := make([]*domain.Transfer, 0, 1)
	r.store.view(func(st *state) {
		for _, t := range st.transfers {
			if t.ParticipationID == participationID {
				t := t
				result = append(result, &t)
			}
		}
	})
	return result, nil
}
