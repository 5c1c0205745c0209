package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/timebank/internal/adapter/repository/memory"
	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/infrastructure/metrics"
	"github.com/iho/timebank/internal/usecase"
)

type seqIDGen struct {
	n atomic.Int64
}

func (g *seqIDGen) Generate() string {
	return fmt.Sprintf("id-%05d", g.n.Add(1))
}

type fixture struct {
	store          *memory.Store
	txManager      *memory.TxManager
	accounts       *memory.AccountRepository
	listings       *memory.ListingRepository
	participations *memory.ParticipationRepository
	entries        *memory.EntryRepository
	transfers      *memory.TransferRepository
	outbox         *memory.OutboxRepository
	metrics        *metrics.Metrics

	ledger         *usecase.LedgerUseCase
	accountUC      *usecase.AccountUseCase
	listingUC      *usecase.ListingUseCase
	participation  *usecase.ParticipationUseCase
	settlement     *usecase.SettlementUseCase
	reconciliation *usecase.ReconciliationUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		store:          store,
		txManager:      memory.NewTxManager(store),
		accounts:       memory.NewAccountRepository(store),
		listings:       memory.NewListingRepository(store),
		participations: memory.NewParticipationRepository(store),
		entries:        memory.NewEntryRepository(store),
		transfers:      memory.NewTransferRepository(store),
		outbox:         memory.NewOutboxRepository(store),
		metrics:        metrics.NewWithRegistry(prometheus.NewRegistry()),
	}

	idGen := &seqIDGen{}
	logger := zerolog.Nop()

	f.ledger = usecase.NewLedgerUseCase(f.txManager, f.accounts, f.entries, f.transfers, nil, f.metrics, logger,
		usecase.LedgerConfig{InitialCredit: domain.InitialCredit, ReciprocityLimit: domain.DefaultReciprocityLimit})
	f.accountUC = usecase.NewAccountUseCase(f.txManager, f.accounts, f.ledger, idGen, f.metrics)
	f.listingUC = usecase.NewListingUseCase(f.txManager, f.accounts, f.listings, idGen)
	arbiter := usecase.NewCapacityArbiter(f.listings, f.metrics)
	f.participation = usecase.NewParticipationUseCase(f.txManager, f.accounts, f.listings, f.participations, f.outbox,
		arbiter, idGen, nil, f.metrics, logger)
	f.settlement = usecase.NewSettlementUseCase(f.txManager, f.accounts, f.listings, f.participations, f.entries,
		f.transfers, f.outbox, f.ledger, idGen, nil, f.metrics, logger)
	f.reconciliation = usecase.NewReconciliationUseCase(f.accounts, f.entries, f.ledger, logger)

	return f
}

func (f *fixture) openAccount(t *testing.T, name string) *domain.Account {
	t.Helper()

	account, err := f.accountUC.OpenAccount(context.Background(), usecase.OpenAccountInput{DisplayName: name})
	require.NoError(t, err)
	return account
}

func (f *fixture) registerListing(t *testing.T, creatorID string, kind domain.ListingKind, capacity int) *domain.Listing {
	t.Helper()

	listing, err := f.listingUC.RegisterListing(context.Background(), usecase.RegisterListingInput{
		CreatorID: creatorID,
		Kind:      kind,
		Title:     "Garden help",
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return listing
}

func (f *fixture) propose(t *testing.T, listingID, helperID string) *domain.Participation {
	t.Helper()

	p, err := f.participation.Propose(context.Background(), usecase.ProposeInput{ListingID: listingID, HelperID: helperID})
	require.NoError(t, err)
	return p
}

func (f *fixture) accept(t *testing.T, p *domain.Participation, hours string) *domain.Participation {
	t.Helper()

	accepted, err := f.participation.Accept(context.Background(), usecase.AcceptInput{
		ParticipationID: p.ID,
		ActingAccountID: p.CreatorID,
		Hours:           decimal.RequireFromString(hours),
	})
	require.NoError(t, err)
	return accepted
}

// acceptedExchange sets up a REQUEST listing by requester with one accepted
// participation by provider.
func (f *fixture) acceptedExchange(t *testing.T, requester, provider *domain.Account, hours string) *domain.Participation {
	t.Helper()

	listing := f.registerListing(t, requester.ID, domain.ListingKindRequest, 1)
	return f.accept(t, f.propose(t, listing.ID, provider.ID), hours)
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	account, err := f.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

// setBalance overwrites the cached balance directly, bypassing the ledger.
func (f *fixture) setBalance(t *testing.T, id string, balance decimal.Decimal) {
	t.Helper()

	ctx := context.Background()
	tx, err := f.txManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.accounts.UpdateBalance(ctx, tx, id, balance, time.Now()))
	require.NoError(t, tx.Commit(ctx))
}

func (f *fixture) setListingStatus(t *testing.T, id string, status domain.ListingStatus) {
	t.Helper()

	ctx := context.Background()
	listing, err := f.listings.GetByID(ctx, id)
	require.NoError(t, err)

	tx, err := f.txManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.listings.UpdateCapacity(ctx, tx, id, listing.AcceptedCount, status, time.Now()))
	require.NoError(t, tx.Commit(ctx))
}

func (f *fixture) suspend(t *testing.T, name string) *domain.Account {
	t.Helper()

	ctx := context.Background()
	account := &domain.Account{
		ID:          "suspended-" + name,
		DisplayName: name,
		Balance:     domain.InitialCredit,
		Active:      false,
	}

	tx, err := f.txManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(ctx, tx, account))
	require.NoError(t, tx.Commit(ctx))
	return account
}
