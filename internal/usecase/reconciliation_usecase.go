package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
)

// ReconciliationUseCase checks the whole ledger.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledger      *LedgerUseCase
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledger *LedgerUseCase,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledger:      ledger,
		logger:      logger.With().Str("component", "reconciliation").Logger(),
	}
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CheckedAt          time.Time
	Discrepancies      []*IntegrityReport
	ExchangeCredits    decimal.Decimal
	ExchangeDebits     decimal.Decimal
	TotalAccounts      int
	ReconciledAccounts int
	LedgerConsistent   bool
}

// OK reports whether every account reconciled and exchanges net to zero.
func (r *ReconciliationReport) OK() bool {
	return r.LedgerConsistent && len(r.Discrepancies) == 0
}

// Reconcile verifies every account's integrity and that EXCHANGE entries net
// to zero across the ledger. Faults are reported, not repaired.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*IntegrityReport, 0),
	}

	for offset := 0; ; offset += reconcilePageSize {
		accounts, err := uc.accountRepo.List(ctx, reconcilePageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.ledger.VerifyIntegrity(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to verify account %s: %w", account.ID, err)
			}

			report.TotalAccounts++
			if result.OK {
				report.ReconciledAccounts++
			} else {
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(accounts) < reconcilePageSize {
			break
		}
	}

	credits, debits, err := uc.entryRepo.SumByType(ctx, domain.TxExchange)
	if err != nil {
		return nil, err
	}

	report.ExchangeCredits = credits
	report.ExchangeDebits = debits
	report.LedgerConsistent = credits.Equal(debits)
	report.CheckedAt = time.Now().UTC()

	if !report.LedgerConsistent {
		uc.logger.Error().
			Str("fault", "integrity").
			Str("exchange_credits", credits.String()).
			Str("exchange_debits", debits.String()).
			Msg("exchange entries do not net to zero")
	}

	uc.logger.Info().
		Int("accounts", report.TotalAccounts).
		Int("discrepancies", len(report.Discrepancies)).
		Bool("ledger_consistent", report.LedgerConsistent).
		Msg("reconciliation finished")

	return report, nil
}
