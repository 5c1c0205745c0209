package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

func TestLedger_Adjust(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		input       usecase.AdjustInput
		wantErr     error
		wantBalance string
	}{
		{
			name:        "credit adjustment",
			input:       usecase.AdjustInput{Amount: decimal.RequireFromString("1.5")},
			wantBalance: "6.5",
		},
		{
			name:        "debit adjustment may go past the reciprocity limit",
			input:       usecase.AdjustInput{Amount: decimal.NewFromInt(-20)},
			wantBalance: "-15",
		},
		{
			name:        "penalty",
			input:       usecase.AdjustInput{Type: domain.TxPenalty, Amount: decimal.NewFromInt(-2)},
			wantBalance: "3",
		},
		{
			name:    "positive penalty",
			input:   usecase.AdjustInput{Type: domain.TxPenalty, Amount: decimal.NewFromInt(2)},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "exchange type is not manual",
			input:   usecase.AdjustInput{Type: domain.TxExchange, Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "zero amount",
			input:   usecase.AdjustInput{Amount: decimal.Zero},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "too precise",
			input:   usecase.AdjustInput{Amount: decimal.RequireFromString("0.001")},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			account := f.openAccount(t, "Ada")

			input := tt.input
			input.AccountID = account.ID

			entry, err := f.ledger.Adjust(ctx, input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, f.balance(t, account.ID).Equal(domain.InitialCredit), "balance untouched")
				return
			}

			require.NoError(t, err)
			want := decimal.RequireFromString(tt.wantBalance)
			assert.True(t, entry.RunningBalance.Equal(want), "running balance %s", entry.RunningBalance)
			assert.True(t, f.balance(t, account.ID).Equal(want))

			report, err := f.ledger.VerifyIntegrity(ctx, account.ID)
			require.NoError(t, err)
			assert.True(t, report.OK)
		})
	}
}

func TestLedger_AdjustUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Adjust(context.Background(), usecase.AdjustInput{AccountID: "missing", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_History(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	account := f.openAccount(t, "Ada")
	for i := 1; i <= 5; i++ {
		_, err := f.ledger.Adjust(ctx, usecase.AdjustInput{AccountID: account.ID, Amount: decimal.NewFromInt(int64(i))})
		require.NoError(t, err)
	}

	page, err := f.ledger.History(ctx, account.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Entries, 2)
	assert.True(t, page.Entries[0].Credit.Equal(decimal.NewFromInt(5)), "newest first")
	assert.True(t, page.Entries[0].RunningBalance.Equal(decimal.NewFromInt(20)))

	page, err = f.ledger.History(ctx, account.ID, 2, 4)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.True(t, page.Entries[0].Credit.Equal(decimal.NewFromInt(1)))

	page, err = f.ledger.History(ctx, account.ID, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit, "defaults apply")
	assert.Equal(t, 0, page.Offset)

	_, err = f.ledger.History(ctx, "missing", 10, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_NewAccountHasNoEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	account := f.openAccount(t, "Ada")
	assert.True(t, account.Balance.Equal(domain.InitialCredit))

	page, err := f.ledger.History(ctx, account.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Entries)

	report, err := f.ledger.VerifyIntegrity(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.True(t, report.ComputedBalance.Equal(domain.InitialCredit))
	assert.NoError(t, report.Err())
}

func TestLedger_VerifyIntegrityDetectsTampering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	requester := f.openAccount(t, "Rita")
	provider := f.openAccount(t, "Paul")
	p := f.acceptedExchange(t, requester, provider, "2")

	_, err := f.settlement.CompleteExchange(ctx, p.ID, requester.ID)
	require.NoError(t, err)
	_, err = f.settlement.CompleteExchange(ctx, p.ID, provider.ID)
	require.NoError(t, err)

	f.setBalance(t, provider.ID, decimal.NewFromInt(100))

	report, err := f.ledger.VerifyIntegrity(ctx, provider.ID)
	require.NoError(t, err)
	assert.False(t, report.OK)
	assert.True(t, report.CachedBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, report.ComputedBalance.Equal(decimal.NewFromInt(7)))
	assert.True(t, report.Difference.Equal(decimal.NewFromInt(93)))
	assert.True(t, report.TotalCredits.Equal(decimal.NewFromInt(2)))

	faultErr := report.Err()
	require.ErrorIs(t, faultErr, domain.ErrIntegrityFault)
	var fault *domain.IntegrityFaultError
	require.True(t, errors.As(faultErr, &fault))
	assert.Equal(t, provider.ID, fault.AccountID)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.IntegrityFaultsDetected))

	// The fault is surfaced, never repaired.
	assert.True(t, f.balance(t, provider.ID).Equal(decimal.NewFromInt(100)))
}

func TestLedger_CheckSpend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	account := f.openAccount(t, "Ada")

	tests := []struct {
		name        string
		hours       string
		wantAllowed bool
		wantWarning bool
	}{
		{name: "within balance", hours: "3", wantAllowed: true},
		{name: "small debt", hours: "12", wantAllowed: true},
		{name: "past warning threshold", hours: "13.5", wantAllowed: true, wantWarning: true},
		{name: "exactly at limit", hours: "15", wantAllowed: true, wantWarning: true},
		{name: "over limit", hours: "15.01", wantAllowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.ledger.CheckSpend(ctx, account.ID, decimal.RequireFromString(tt.hours))
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantWarning, d.Warning)
		})
	}

	_, err := f.ledger.CheckSpend(ctx, account.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.ledger.CheckSpend(ctx, "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_ListTransfers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	requester := f.openAccount(t, "Rita")
	provider := f.openAccount(t, "Paul")
	bystander := f.openAccount(t, "Bea")

	p := f.acceptedExchange(t, requester, provider, "1")
	_, err := f.settlement.CompleteExchange(ctx, p.ID, requester.ID)
	require.NoError(t, err)
	_, err = f.settlement.CompleteExchange(ctx, p.ID, provider.ID)
	require.NoError(t, err)

	for _, id := range []string{requester.ID, provider.ID} {
		transfers, err := f.ledger.ListTransfers(ctx, id, 10, 0)
		require.NoError(t, err)
		require.Len(t, transfers, 1)
		assert.Equal(t, p.ID, transfers[0].ParticipationID)
	}

	transfers, err := f.ledger.ListTransfers(ctx, bystander.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}
