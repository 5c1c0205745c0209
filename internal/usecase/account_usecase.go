package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	ledger      *LedgerUseCase
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	ledger *LedgerUseCase,
	idGen IDGenerator,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		ledger:      ledger,
		idGen:       idGen,
		metrics:     m,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	DisplayName string
}

// OpenAccount creates an active account seeded with the initial credit.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.DisplayName)
	if err := domain.ValidateDisplayName(name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:          uc.idGen.Generate(),
		DisplayName: name,
		Balance:     uc.ledger.InitialCredit(),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		return uc.accountRepo.Create(ctx, tx, account)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
