package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create appends an entry and assigns its ID.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	if _, ok := st.accounts[entry.AccountID]; !ok {
		return domain.ErrAccountNotFound
	}
	st.nextEntryID++
	entry.ID = st.nextEntryID
	st.entries = append(st.entries, *entry)
	return nil
}

// ListByAccount returns the account's entries newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	var result []*domain.LedgerEntry
	r.store.view(func(st *state) {
		for i := len(st.entries) - 1; i >= 0; i-- {
			if st.entries[i].AccountID == accountID {
				e := st.entries[i]
				result = append(result, &e)
			}
		}
	})
	return paginate(result, limit, offset), nil
}

// CountByAccount counts the account's entries.
func (r *EntryRepository) CountByAccount(ctx context.Context, accountID string) (int, error) {
	count := 0
	r.store.view(func(st *state) {
		for _, e := range st.entries {
			if e.AccountID == accountID {
				count++
			}
		}
	})
	return count, nil
}

// SumByAccount totals the account's credits and debits inside tx.
func (r *EntryRepository) SumByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	st, err := stateOf(tx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	credits, debits := decimal.Zero, decimal.Zero
	for _, e := range st.entries {
		if e.AccountID == accountID {
			credits = credits.Add(e.Credit)
			debits = debits.Add(e.Debit)
		}
	}
	return credits, debits, nil
}

// ListByParticipation returns a participation's entries in posting order.
func (r *EntryRepository) ListByParticipation(ctx context.Context, participationID string) ([]*domain.LedgerEntry, error) {
	result := make([]*domain.LedgerEntry, 0, 2)
	r.store.view(func(st *state) {
		for _, e := range st.entries {
			if e.ParticipationID != nil && *e.ParticipationID == participationID {
				e := e
				result = append(result, &e)
			}
		}
	})
	return result, nil
}

// SumByType totals credits and debits of one transaction type.
func (r *EntryRepository) SumByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, decimal.Decimal, error) {
	credits, debits := decimal.Zero, decimal.Zero
	r.store.view(func(st *state) {
		for _, e := range st.entries {
			if e.Type == txType {
				credits = credits.Add(e.Credit)
				debits = debits.Add(e.Debit)
			}
		}
	})
	return credits, debits, nil
}
