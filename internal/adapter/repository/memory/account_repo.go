package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	if _, ok := st.accounts[account.ID]; ok {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	st.accounts[account.ID] = *account
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var (
		account domain.Account
		ok      bool
	)
	r.store.view(func(st *state) {
		account, ok = st.accounts[id]
	})
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

// GetByIDForUpdate retrieves an account inside tx.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	st, err := stateOf(tx)
	if err != nil {
		return nil, err
	}
	account, ok := st.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

// GetByIDsForUpdate retrieves the existing accounts among ids, ordered by id.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	st, err := stateOf(tx)
	if err != nil {
		return nil, err
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	accounts := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		if account, ok := st.accounts[id]; ok {
			accounts = append(accounts, &account)
		}
	}
	return accounts, nil
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	account, ok := st.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Balance = balance
	account.UpdatedAt = updatedAt
	st.accounts[id] = account
	return nil
}

// List lists accounts ordered by id.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account
	r.store.view(func(st *state) {
		accounts = make([]*domain.Account, 0, len(st.accounts))
		for _, a := range st.accounts {
			a := a
			accounts = append(accounts, &a)
		}
	})

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return paginate(accounts, limit, offset), nil
}
