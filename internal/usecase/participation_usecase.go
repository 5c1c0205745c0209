package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/infrastructure/metrics"
)

// ParticipationUseCase drives a participation from proposal to acceptance,
// or to a decline or withdrawal.
type ParticipationUseCase struct {
	txManager         TransactionManager
	accountRepo       AccountRepository
	listingRepo       ListingRepository
	participationRepo ParticipationRepository
	outboxRepo        OutboxRepository
	arbiter           *CapacityArbiter
	idGen             IDGenerator
	retrier           Retrier
	metrics           *metrics.Metrics
	logger            zerolog.Logger
}

// NewParticipationUseCase creates a new ParticipationUseCase.
func NewParticipationUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	listingRepo ListingRepository,
	participationRepo ParticipationRepository,
	outboxRepo OutboxRepository,
	arbiter *CapacityArbiter,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ParticipationUseCase {
	return &ParticipationUseCase{
		txManager:         txManager,
		accountRepo:       accountRepo,
		listingRepo:       listingRepo,
		participationRepo: participationRepo,
		outboxRepo:        outboxRepo,
		arbiter:           arbiter,
		idGen:             idGen,
		retrier:           retrier,
		metrics:           m,
		logger:            logger.With().Str("component", "participation").Logger(),
	}
}

// ProposeInput represents a helper offering to take part in a listing.
type ProposeInput struct {
	ListingID string
	HelperID  string
	Message   string
}

// Propose creates a PENDING participation.
func (uc *ParticipationUseCase) Propose(ctx context.Context, input ProposeInput) (*domain.Participation, error) {
	if err := domain.ValidateMessage(input.Message); err != nil {
		return nil, err
	}

	var participation *domain.Participation
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		listing, err := uc.listingRepo.GetByIDForUpdate(ctx, tx, input.ListingID)
		if err != nil {
			return err
		}

		helper, err := uc.accountRepo.GetByID(ctx, input.HelperID)
		if err != nil {
			return err
		}
		if err := helper.EnsureActive(); err != nil {
			return err
		}

		if helper.ID == listing.CreatorID {
			return domain.ErrSelfDealing
		}

		if err := listing.CheckOpen(); err != nil {
			return err
		}

		live, err := uc.participationRepo.FindLive(ctx, tx, listing.ID, helper.ID)
		if err != nil {
			return err
		}
		if live != nil {
			return domain.ErrDuplicateProposal
		}

		now := time.Now().UTC()
		participation = &domain.Participation{
			ID:        uc.idGen.Generate(),
			ListingID: listing.ID,
			HelperID:  helper.ID,
			CreatorID: listing.CreatorID,
			Role:      listing.Kind.HelperRole(),
			Status:    domain.ParticipationPending,
			Hours:     decimal.Zero,
			Message:   input.Message,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := uc.participationRepo.Create(ctx, tx, participation); err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, tx, newParticipationEvent(uc.idGen, participation.ID, domain.EventTypeParticipationProposed,
			domain.ParticipationProposedPayload(participation), now))
	})
	if err != nil {
		recordExchangeError(uc.metrics, "propose", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ParticipationsProposed.Inc()
	}

	uc.logger.Info().
		Str("participation_id", participation.ID).
		Str("listing_id", participation.ListingID).
		Str("helper_id", participation.HelperID).
		Msg("participation proposed")

	return participation, nil
}

// AcceptInput represents the listing creator accepting a proposal.
type AcceptInput struct {
	ParticipationID string
	ActingAccountID string
	Hours           decimal.Decimal
}

// Accept moves a PENDING participation to ACCEPTED and takes a capacity slot
// on its listing in the same transaction. On any failure nothing changes.
func (uc *ParticipationUseCase) Accept(ctx context.Context, input AcceptInput) (*domain.Participation, error) {
	if err := domain.ValidateHours(input.Hours); err != nil {
		return nil, err
	}

	var (
		participation *domain.Participation
		listing       *domain.Listing
	)
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		participation, err = uc.participationRepo.GetByIDForUpdate(ctx, tx, input.ParticipationID)
		if err != nil {
			return err
		}

		if input.ActingAccountID != participation.CreatorID {
			return domain.ErrNotListingCreator
		}

		creator, err := uc.accountRepo.GetByID(ctx, participation.CreatorID)
		if err != nil {
			return err
		}
		if err := creator.EnsureActive(); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := participation.Accept(input.Hours, now); err != nil {
			return err
		}

		listing, err = uc.arbiter.TryAccept(ctx, tx, participation.ListingID)
		if err != nil {
			return err
		}

		if err := uc.participationRepo.Update(ctx, tx, participation); err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, tx, newParticipationEvent(uc.idGen, participation.ID, domain.EventTypeParticipationAccepted,
			domain.ParticipationAcceptedPayload(participation, listing), now))
	})
	if err != nil {
		recordExchangeError(uc.metrics, "accept", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ParticipationsAccepted.Inc()
		if listing.Status == domain.ListingStatusFull {
			uc.metrics.ListingsFilled.Inc()
		}
	}

	uc.logger.Info().
		Str("participation_id", participation.ID).
		Str("listing_id", listing.ID).
		Str("hours", participation.Hours.String()).
		Int("accepted_count", listing.AcceptedCount).
		Str("listing_status", string(listing.Status)).
		Msg("participation accepted")

	return participation, nil
}

// DeclineInput represents either party closing a live participation.
type DeclineInput struct {
	ParticipationID string
	ActingAccountID string
}

// DeclineOrWithdraw closes a PENDING or ACCEPTED participation. The helper
// withdraws (CANCELLED), the listing creator declines (DECLINED). Closing an
// ACCEPTED participation gives its capacity slot back.
func (uc *ParticipationUseCase) DeclineOrWithdraw(ctx context.Context, input DeclineInput) (*domain.Participation, error) {
	var participation *domain.Participation
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		participation, err = uc.participationRepo.GetByIDForUpdate(ctx, tx, input.ParticipationID)
		if err != nil {
			return err
		}

		prev, err := participation.Close(input.ActingAccountID, time.Now().UTC())
		if err != nil {
			return err
		}

		if prev == domain.ParticipationAccepted {
			if _, err := uc.arbiter.Release(ctx, tx, participation.ListingID); err != nil {
				return err
			}
		}

		return uc.participationRepo.Update(ctx, tx, participation)
	})
	if err != nil {
		recordExchangeError(uc.metrics, "decline", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ParticipationsClosed.WithLabelValues(string(participation.Status)).Inc()
	}

	uc.logger.Info().
		Str("participation_id", participation.ID).
		Str("actor_id", input.ActingAccountID).
		Str("status", string(participation.Status)).
		Msg("participation closed")

	return participation, nil
}

// GetParticipation retrieves a participation by ID.
func (uc *ParticipationUseCase) GetParticipation(ctx context.Context, id string) (*domain.Participation, error) {
	return uc.participationRepo.GetByID(ctx, id)
}

// ListByListing lists a listing's participations, oldest first.
func (uc *ParticipationUseCase) ListByListing(ctx context.Context, listingID string, limit, offset int) ([]*domain.Participation, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	if _, err := uc.listingRepo.GetByID(ctx, listingID); err != nil {
		return nil, err
	}

	return uc.participationRepo.ListByListing(ctx, listingID, limit, offset)
}
