package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/infrastructure/metrics"
)

// LedgerConfig holds the ledger's policy knobs.
type LedgerConfig struct {
	// InitialCredit is the balance every account was seeded with. Changing it
	// on a populated store makes every existing account fail integrity.
	InitialCredit decimal.Decimal
	// ReciprocityLimit is the largest debt an account may carry.
	ReciprocityLimit decimal.Decimal
}

// LedgerUseCase owns every write to account balances.
type LedgerUseCase struct {
	txManager     TransactionManager
	accountRepo   AccountRepository
	entryRepo     EntryRepository
	transferRepo  TransferRepository
	retrier       Retrier
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	guard         domain.ReciprocityGuard
	initialCredit decimal.Decimal
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	transferRepo TransferRepository,
	retrier Retrier,
	m *metrics.Metrics,
	logger zerolog.Logger,
	cfg LedgerConfig,
) *LedgerUseCase {
	initialCredit := cfg.InitialCredit
	if initialCredit.IsNegative() {
		initialCredit = domain.InitialCredit
	}

	return &LedgerUseCase{
		txManager:     txManager,
		accountRepo:   accountRepo,
		entryRepo:     entryRepo,
		transferRepo:  transferRepo,
		retrier:       retrier,
		metrics:       m,
		logger:        logger.With().Str("component", "ledger").Logger(),
		guard:         domain.NewReciprocityGuard(cfg.ReciprocityLimit),
		initialCredit: initialCredit,
	}
}

// InitialCredit returns the seed balance new accounts are opened with.
func (uc *LedgerUseCase) InitialCredit() decimal.Decimal {
	return uc.initialCredit
}

// PostEntryInput describes one ledger line.
type PostEntryInput struct {
	ParticipationID *string
	Description     string
	Type            domain.TransactionType
	Debit           decimal.Decimal
	Credit          decimal.Decimal
}

// postEntry appends one entry for account and writes the new balance back in
// the same transaction. The caller must hold the account's row lock in tx.
// account.Balance is updated in place.
func (uc *LedgerUseCase) postEntry(ctx context.Context, tx Transaction, account *domain.Account, input PostEntryInput, now time.Time) (*domain.LedgerEntry, error) {
	if err := domain.ValidateEntryAmounts(input.Debit, input.Credit); err != nil {
		return nil, err
	}

	newBalance := account.BalanceAfter(input.Debit, input.Credit)

	entry := &domain.LedgerEntry{
		AccountID:       account.ID,
		Debit:           input.Debit,
		Credit:          input.Credit,
		RunningBalance:  newBalance,
		Type:            input.Type,
		Description:     input.Description,
		ParticipationID: input.ParticipationID,
		CreatedAt:       now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, err
	}

	account.Balance = newBalance
	account.UpdatedAt = now

	if uc.metrics != nil {
		uc.metrics.LedgerEntriesPosted.WithLabelValues(string(input.Type)).Inc()
	}

	return entry, nil
}

// AdjustInput represents a manual correction. A positive Amount credits the
// account, a negative one debits it.
type AdjustInput struct {
	AccountID   string
	Description string
	Type        domain.TransactionType
	Amount      decimal.Decimal
}

// Adjust posts one compensating ADJUSTMENT or PENALTY entry. Existing entries
// are never touched. Adjustments bypass the reciprocity guard.
func (uc *LedgerUseCase) Adjust(ctx context.Context, input AdjustInput) (*domain.LedgerEntry, error) {
	if input.Type == "" {
		input.Type = domain.TxAdjustment
	}

	switch input.Type {
	case domain.TxAdjustment:
	case domain.TxPenalty:
		if !input.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: a penalty must debit the account", domain.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: manual entries must be ADJUSTMENT or PENALTY", domain.ErrValidation)
	}

	if err := domain.ValidateHours(input.Amount.Abs()); err != nil {
		return nil, err
	}

	if input.Description == "" {
		input.Description = "Manual correction"
	}

	post := PostEntryInput{
		Description: input.Description,
		Type:        input.Type,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
	}
	if input.Amount.IsNegative() {
		post.Debit = input.Amount.Neg()
	} else {
		post.Credit = input.Amount
	}

	var entry *domain.LedgerEntry
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
		if err != nil {
			return err
		}

		entry, err = uc.postEntry(ctx, tx, account, post, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", input.AccountID).
		Str("type", string(input.Type)).
		Str("amount", input.Amount.String()).
		Int64("entry_id", entry.ID).
		Msg("manual ledger entry posted")

	return entry, nil
}

// HistoryPage is one page of an account's ledger.
type HistoryPage struct {
	Entries []*domain.LedgerEntry
	Total   int
	Limit   int
	Offset  int
}

// History returns an account's entries newest first together with the total
// entry count.
func (uc *LedgerUseCase) History(ctx context.Context, accountID string, limit, offset int) (*HistoryPage, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := uc.entryRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Entries: entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// IntegrityReport is the outcome of comparing an account's cached balance
// with its ledger.
type IntegrityReport struct {
	CheckedAt       time.Time
	AccountID       string
	CachedBalance   decimal.Decimal
	ComputedBalance decimal.Decimal
	Difference      decimal.Decimal
	TotalCredits    decimal.Decimal
	TotalDebits     decimal.Decimal
	OK              bool
}

// Err returns an *domain.IntegrityFaultError when the report is not OK.
func (r *IntegrityReport) Err() error {
	if r.OK {
		return nil
	}
	return &domain.IntegrityFaultError{
		AccountID: r.AccountID,
		Cached:    r.CachedBalance,
		Computed:  r.ComputedBalance,
	}
}

// VerifyIntegrity recomputes initial credit + credits - debits for the account
// and compares it with the cached balance. A mismatch is reported and logged,
// never repaired.
func (uc *LedgerUseCase) VerifyIntegrity(ctx context.Context, accountID string) (*IntegrityReport, error) {
	var report *IntegrityReport

	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}

		credits, debits, err := uc.entryRepo.SumByAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}

		computed := uc.initialCredit.Add(credits).Sub(debits)
		report = &IntegrityReport{
			CheckedAt:       time.Now().UTC(),
			AccountID:       accountID,
			CachedBalance:   account.Balance,
			ComputedBalance: computed,
			Difference:      account.Balance.Sub(computed),
			TotalCredits:    credits,
			TotalDebits:     debits,
			OK:              account.Balance.Equal(computed),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.OK {
		uc.logger.Error().
			Str("fault", "integrity").
			Str("account_id", accountID).
			Str("cached_balance", report.CachedBalance.String()).
			Str("computed_balance", report.ComputedBalance.String()).
			Msg("ledger integrity fault")

		if uc.metrics != nil {
			uc.metrics.IntegrityFaultsDetected.Inc()
		}
	}

	return report, nil
}

// CheckSpend previews whether the account could spend hours right now.
func (uc *LedgerUseCase) CheckSpend(ctx context.Context, accountID string, hours decimal.Decimal) (domain.SpendDecision, error) {
	if err := domain.ValidateHours(hours); err != nil {
		return domain.SpendDecision{}, err
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return domain.SpendDecision{}, err
	}

	return uc.guard.Check(account.Balance, hours), nil
}

// ListTransfers lists settlements the account took part in, newest first.
func (uc *LedgerUseCase) ListTransfers(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	return uc.transferRepo.ListByAccount(ctx, accountID, limit, offset)
}
