package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/infrastructure/metrics"
)

// SettlementStatus is the outcome of a completion vote.
type SettlementStatus string

const (
	// SettlementAwaitingOtherParty means the vote was recorded and the other
	// party has yet to confirm. Nothing was posted.
	SettlementAwaitingOtherParty SettlementStatus = "AWAITING_OTHER_PARTY"
	// SettlementSettled means this vote completed the pair and hours moved.
	SettlementSettled SettlementStatus = "SETTLED"
)

// SettlementResult describes a completed settlement.
type SettlementResult struct {
	TransferID       string
	ProviderID       string
	RequesterID      string
	Warning          string
	Hours            decimal.Decimal
	ProviderBalance  decimal.Decimal
	RequesterBalance decimal.Decimal
	CreditEntry      *domain.LedgerEntry
	DebitEntry       *domain.LedgerEntry
}

// SettlementOutcome is returned by every successful completion vote.
type SettlementOutcome struct {
	Participation *domain.Participation
	Settlement    *SettlementResult
	Status        SettlementStatus
}

// SettlementDetail is the audit view of a participation's settlement.
type SettlementDetail struct {
	Participation *domain.Participation
	Transfer      *domain.Transfer
	Entries       []*domain.LedgerEntry
}

// SettlementUseCase runs the two-party completion protocol and posts the
// settlement to the ledger.
type SettlementUseCase struct {
	txManager         TransactionManager
	accountRepo       AccountRepository
	listingRepo       ListingRepository
	participationRepo ParticipationRepository
	entryRepo         EntryRepository
	transferRepo      TransferRepository
	outboxRepo        OutboxRepository
	ledger            *LedgerUseCase
	idGen             IDGenerator
	retrier           Retrier
	metrics           *metrics.Metrics
	logger            zerolog.Logger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	listingRepo ListingRepository,
	participationRepo ParticipationRepository,
	entryRepo EntryRepository,
	transferRepo TransferRepository,
	outboxRepo OutboxRepository,
	ledger *LedgerUseCase,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:         txManager,
		accountRepo:       accountRepo,
		listingRepo:       listingRepo,
		participationRepo: participationRepo,
		entryRepo:         entryRepo,
		transferRepo:      transferRepo,
		outboxRepo:        outboxRepo,
		ledger:            ledger,
		idGen:             idGen,
		retrier:           retrier,
		metrics:           m,
		logger:            logger.With().Str("component", "settlement").Logger(),
	}
}

// ConfirmInput represents one party's completion vote.
type ConfirmInput struct {
	ParticipationID string
	ActingAccountID string
}

// ConfirmCompletion records the acting party's vote. When it is the second
// vote the exchange settles in the same transaction: the requester is checked
// against the reciprocity limit, the provider is credited, the requester is
// debited, a transfer is written and the participation completes. If the
// guard refuses, the vote is rolled back with everything else.
func (uc *SettlementUseCase) ConfirmCompletion(ctx context.Context, input ConfirmInput) (*SettlementOutcome, error) {
	start := time.Now()

	var outcome *SettlementOutcome
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		participation, err := uc.participationRepo.GetByIDForUpdate(ctx, tx, input.ParticipationID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		both, err := participation.Confirm(input.ActingAccountID, now)
		if err != nil {
			return err
		}

		if !both {
			if err := uc.participationRepo.Update(ctx, tx, participation); err != nil {
				return err
			}
			outcome = &SettlementOutcome{
				Participation: participation,
				Status:        SettlementAwaitingOtherParty,
			}
			return nil
		}

		result, err := uc.settle(ctx, tx, participation, now)
		if err != nil {
			return err
		}

		outcome = &SettlementOutcome{
			Participation: participation,
			Settlement:    result,
			Status:        SettlementSettled,
		}
		return nil
	})
	if err != nil {
		recordExchangeError(uc.metrics, "confirm", err)
		var rerr *domain.ReciprocityError
		if errors.As(err, &rerr) {
			uc.logger.Warn().
				Str("participation_id", input.ParticipationID).
				Str("requester_id", rerr.AccountID).
				Str("debt", rerr.Decision.Debt.String()).
				Msg("settlement refused by reciprocity limit")
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ConfirmationsRecorded.Inc()
	}

	if outcome.Status == SettlementAwaitingOtherParty {
		uc.logger.Info().
			Str("participation_id", input.ParticipationID).
			Str("actor_id", input.ActingAccountID).
			Msg("completion confirmed, awaiting other party")
		return outcome, nil
	}

	s := outcome.Settlement
	if uc.metrics != nil {
		uc.metrics.SettlementsCompleted.Inc()
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
		uc.metrics.SettlementHours.Observe(s.Hours.InexactFloat64())
		if s.Warning != "" {
			uc.metrics.ReciprocityWarnings.Inc()
		}
	}

	uc.logger.Info().
		Str("participation_id", input.ParticipationID).
		Str("transfer_id", s.TransferID).
		Str("provider_id", s.ProviderID).
		Str("requester_id", s.RequesterID).
		Str("hours", s.Hours.String()).
		Bool("warning", s.Warning != "").
		Msg("exchange settled")

	return outcome, nil
}

// CompleteExchange is ConfirmCompletion under the name the settlement
// protocol uses.
func (uc *SettlementUseCase) CompleteExchange(ctx context.Context, participationID, confirmingAccountID string) (*SettlementOutcome, error) {
	return uc.ConfirmCompletion(ctx, ConfirmInput{
		ParticipationID: participationID,
		ActingAccountID: confirmingAccountID,
	})
}

func (uc *SettlementUseCase) settle(ctx context.Context, tx Transaction, p *domain.Participation, now time.Time) (*SettlementResult, error) {
	listing, err := uc.listingRepo.GetByID(ctx, p.ListingID)
	if err != nil {
		return nil, err
	}

	// Lock both accounts in ascending id order.
	ids := []string{p.ProviderID(), p.RequesterID()}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	provider, requester := byID[p.ProviderID()], byID[p.RequesterID()]
	if provider == nil || requester == nil {
		return nil, domain.ErrAccountNotFound
	}

	decision := uc.ledger.guard.Check(requester.Balance, p.Hours)
	if !decision.Allowed {
		return nil, &domain.ReciprocityError{AccountID: requester.ID, Decision: decision}
	}

	if err := p.Complete(now); err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{
		ID:              uc.idGen.Generate(),
		SenderID:        requester.ID,
		ReceiverID:      provider.ID,
		ParticipationID: p.ID,
		Amount:          p.Hours,
		Type:            domain.TxExchange,
		Notes:           listing.Label(),
		CreatedAt:       now,
	}
	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	participationID := p.ID

	credit, err := uc.ledger.postEntry(ctx, tx, provider, PostEntryInput{
		ParticipationID: &participationID,
		Description:     fmt.Sprintf("Provided %q for %s", listing.Label(), requester.Name()),
		Type:            domain.TxExchange,
		Debit:           decimal.Zero,
		Credit:          p.Hours,
	}, now)
	if err != nil {
		return nil, err
	}

	debit, err := uc.ledger.postEntry(ctx, tx, requester, PostEntryInput{
		ParticipationID: &participationID,
		Description:     fmt.Sprintf("Received %q from %s", listing.Label(), provider.Name()),
		Type:            domain.TxExchange,
		Debit:           p.Hours,
		Credit:          decimal.Zero,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := uc.transferRepo.Create(ctx, tx, transfer); err != nil {
		return nil, err
	}

	if err := uc.participationRepo.Update(ctx, tx, p); err != nil {
		return nil, err
	}

	event := newParticipationEvent(uc.idGen, p.ID, domain.EventTypeParticipationCompleted,
		domain.ParticipationCompletedPayload(p, transfer), now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	return &SettlementResult{
		TransferID:       transfer.ID,
		ProviderID:       provider.ID,
		RequesterID:      requester.ID,
		Warning:          decision.Message,
		Hours:            p.Hours,
		ProviderBalance:  provider.Balance,
		RequesterBalance: requester.Balance,
		CreditEntry:      credit,
		DebitEntry:       debit,
	}, nil
}

// GetSettlement returns the transfer and ledger entries a participation
// produced. Both are empty until it completes.
func (uc *SettlementUseCase) GetSettlement(ctx context.Context, participationID string) (*SettlementDetail, error) {
	participation, err := uc.participationRepo.GetByID(ctx, participationID)
	if err != nil {
		return nil, err
	}

	detail := &SettlementDetail{Participation: participation}

	transfers, err := uc.transferRepo.ListByParticipation(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if len(transfers) > 0 {
		detail.Transfer = transfers[0]
	}

	detail.Entries, err = uc.entryRepo.ListByParticipation(ctx, participationID)
	if err != nil {
		return nil, err
	}

	return detail, nil
}
