package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/timebank/internal/domain"
)

func seedAccount(t *testing.T, store *Store, id string, balance int64) {
	t.Helper()

	ctx := context.Background()
	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, NewAccountRepository(store).Create(ctx, tx, &domain.Account{
		ID:      id,
		Balance: decimal.NewFromInt(balance),
		Active:  true,
	}))
	require.NoError(t, tx.Commit(ctx))
}

func TestTx_CommitPublishesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1", 5)
	repo := NewAccountRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateBalance(ctx, tx, "acc-1", decimal.NewFromInt(8), time.Now()))

	before, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, before.Balance.Equal(decimal.NewFromInt(5)), "uncommitted write must not be visible")

	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")

	after, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(8)))
}

func TestTx_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1", 5)
	repo := NewAccountRepository(store)
	entries := NewEntryRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, entries.Create(ctx, tx, &domain.LedgerEntry{AccountID: "acc-1", Debit: decimal.NewFromInt(1), Type: domain.TxAdjustment}))
	require.NoError(t, repo.UpdateBalance(ctx, tx, "acc-1", decimal.NewFromInt(4), time.Now()))
	require.NoError(t, tx.Rollback(ctx))

	count, err := entries.CountByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	acc, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(5)))

	err = tx.Commit(ctx)
	assert.ErrorIs(t, err, ErrTxClosed)
}

func TestTxManager_BeginWaitsForRunningTx(t *testing.T) {
	store := NewStore()
	txm := NewTxManager(store)

	tx, err := txm.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = txm.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, tx.Rollback(context.Background()))

	tx2, err := txm.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(context.Background()))
}

func TestTxManager_SerialisesIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1", 0)
	repo := NewAccountRepository(store)
	txm := NewTxManager(store)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := txm.Begin(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			defer func() { _ = tx.Rollback(ctx) }()

			acc, err := repo.GetByIDForUpdate(ctx, tx, "acc-1")
			if err != nil {
				t.Error(err)
				return
			}
			if err := repo.UpdateBalance(ctx, tx, acc.ID, acc.Balance.Add(decimal.NewFromInt(1)), time.Now()); err != nil {
				t.Error(err)
				return
			}
			if err := tx.Commit(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	acc, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(workers)), "got %s", acc.Balance)
}

func TestParticipationRepository_LiveUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewParticipationRepository(store)
	txm := NewTxManager(store)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	first := &domain.Participation{ID: "p-1", ListingID: "l-1", HelperID: "h", Status: domain.ParticipationPending}
	require.NoError(t, repo.Create(ctx, tx, first))

	live, err := repo.FindLive(ctx, tx, "l-1", "h")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, "p-1", live.ID)

	err = repo.Create(ctx, tx, &domain.Participation{ID: "p-2", ListingID: "l-1", HelperID: "h", Status: domain.ParticipationPending})
	assert.ErrorIs(t, err, domain.ErrDuplicateProposal)

	first.Status = domain.ParticipationCancelled
	require.NoError(t, repo.Update(ctx, tx, first))

	live, err = repo.FindLive(ctx, tx, "l-1", "h")
	require.NoError(t, err)
	assert.Nil(t, live)

	require.NoError(t, repo.Create(ctx, tx, &domain.Participation{ID: "p-3", ListingID: "l-1", HelperID: "h", Status: domain.ParticipationPending}))
}

func TestListingRepository_UpdateCapacityBounds(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewListingRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	require.NoError(t, repo.Create(ctx, tx, &domain.Listing{ID: "l-1", Capacity: 1, Status: domain.ListingStatusActive, Kind: domain.ListingKindRequest}))
	require.NoError(t, repo.UpdateCapacity(ctx, tx, "l-1", 1, domain.ListingStatusFull, time.Now()))

	err = repo.UpdateCapacity(ctx, tx, "l-1", 2, domain.ListingStatusFull, time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = repo.GetByIDForUpdate(ctx, tx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntryRepository_OrderingAndSums(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedAccount(t, store, "acc-1", 5)
	repo := NewEntryRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)

	pid := "p-1"
	require.NoError(t, repo.Create(ctx, tx, &domain.LedgerEntry{AccountID: "acc-1", Credit: decimal.NewFromInt(3), Type: domain.TxExchange, ParticipationID: &pid}))
	require.NoError(t, repo.Create(ctx, tx, &domain.LedgerEntry{AccountID: "acc-1", Debit: decimal.NewFromInt(1), Type: domain.TxAdjustment}))

	credits, debits, err := repo.SumByAccount(ctx, tx, "acc-1")
	require.NoError(t, err)
	assert.True(t, credits.Equal(decimal.NewFromInt(3)))
	assert.True(t, debits.Equal(decimal.NewFromInt(1)))

	err = repo.Create(ctx, tx, &domain.LedgerEntry{AccountID: "ghost", Credit: decimal.NewFromInt(1), Type: domain.TxExchange})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	require.NoError(t, tx.Commit(ctx))

	entries, err := repo.ListByAccount(ctx, "acc-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID, "newest first")
	assert.Equal(t, int64(1), entries[1].ID)

	page, err := repo.ListByAccount(ctx, "acc-1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(1), page[0].ID)

	byParticipation, err := repo.ListByParticipation(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, byParticipation, 1)

	exCredits, exDebits, err := repo.SumByType(ctx, domain.TxExchange)
	require.NoError(t, err)
	assert.True(t, exCredits.Equal(decimal.NewFromInt(3)))
	assert.True(t, exDebits.IsZero())
}

func TestOutboxRepository_PublishLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewOutboxRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, &domain.OutboxEvent{ID: "evt-1", AggregateType: "participation", AggregateID: "p-1"}))
	require.NoError(t, repo.Create(ctx, tx, &domain.OutboxEvent{ID: "evt-2", AggregateType: "participation", AggregateID: "p-1"}))
	require.NoError(t, tx.Commit(ctx))

	pending, err := repo.GetUnpublished(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "evt-1", pending[0].ID)

	publishedAt := time.Now().Add(-time.Hour)
	require.NoError(t, repo.MarkPublished(ctx, "evt-1", publishedAt))

	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "evt-2", pending[0].ID)

	require.NoError(t, repo.DeletePublished(ctx, time.Now()))

	events, err := repo.GetByAggregate(ctx, "participation", "p-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-2", events[0].ID)
}

func TestTransferRepository_Queries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewTransferRepository(store)

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, &domain.Transfer{ID: "t-1", SenderID: "a", ReceiverID: "b", ParticipationID: "p-1", Amount: decimal.NewFromInt(2)}))
	require.NoError(t, repo.Create(ctx, tx, &domain.Transfer{ID: "t-2", SenderID: "b", ReceiverID: "c", ParticipationID: "p-2", Amount: decimal.NewFromInt(1)}))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ParticipationID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTransferNotFound)

	forB, err := repo.ListByAccount(ctx, "b", 10, 0)
	require.NoError(t, err)
	require.Len(t, forB, 2)
	assert.Equal(t, "t-2", forB[0].ID, "newest first")

	forP, err := repo.ListByParticipation(ctx, "p-2")
	require.NoError(t, err)
	require.Len(t, forP, 1)
}
