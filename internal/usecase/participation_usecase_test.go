package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

func TestParticipation_ProposeGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	creator := f.openAccount(t, "Cora")
	helper := f.openAccount(t, "Hugo")
	suspended := f.suspend(t, "Sid")
	listing := f.registerListing(t, creator.ID, domain.ListingKindRequest, 1)

	tests := []struct {
		name    string
		input   usecase.ProposeInput
		wantErr error
	}{
		{
			name:    "unknown listing",
			input:   usecase.ProposeInput{ListingID: "missing", HelperID: helper.ID},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unknown helper",
			input:   usecase.ProposeInput{ListingID: listing.ID, HelperID: "ghost"},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "creator proposes on own listing",
			input:   usecase.ProposeInput{ListingID: listing.ID, HelperID: creator.ID},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "suspended helper",
			input:   usecase.ProposeInput{ListingID: listing.ID, HelperID: suspended.ID},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "message too long",
			input:   usecase.ProposeInput{ListingID: listing.ID, HelperID: helper.ID, Message: strings.Repeat("x", domain.MaxMessageLength+1)},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.participation.Propose(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	p, err := f.participation.Propose(ctx, usecase.ProposeInput{ListingID: listing.ID, HelperID: helper.ID, Message: "Happy to help"})
	require.NoError(t, err)
	assert.Equal(t, "Happy to help", p.Message)
	assert.Equal(t, creator.ID, p.CreatorID)

	_, err = f.participation.Propose(ctx, usecase.ProposeInput{ListingID: listing.ID, HelperID: helper.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "second live proposal by the same helper")
	assert.ErrorIs(t, err, domain.ErrDuplicateProposal)
}

func TestParticipation_ProposeOnClosedListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	creator := f.openAccount(t, "Cora")
	first := f.openAccount(t, "Hugo")
	second := f.openAccount(t, "Hana")

	full := f.registerListing(t, creator.ID, domain.ListingKindRequest, 1)
	f.accept(t, f.propose(t, full.ID, first.ID), "1")

	_, err := f.participation.Propose(ctx, usecase.ProposeInput{ListingID: full.ID, HelperID: second.ID})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	expired := f.registerListing(t, creator.ID, domain.ListingKindRequest, 2)
	f.setListingStatus(t, expired.ID, domain.ListingStatusExpired)

	_, err = f.participation.Propose(ctx, usecase.ProposeInput{ListingID: expired.ID, HelperID: second.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, err, domain.ErrListingNotActive)
}

func TestParticipation_AcceptGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	creator := f.openAccount(t, "Cora")
	helper := f.openAccount(t, "Hugo")
	listing := f.registerListing(t, creator.ID, domain.ListingKindRequest, 2)
	p := f.propose(t, listing.ID, helper.ID)

	_, err := f.participation.Accept(ctx, usecase.AcceptInput{ParticipationID: p.ID, ActingAccountID: helper.ID, Hours: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the creator accepts")

	_, err = f.participation.Accept(ctx, usecase.AcceptInput{ParticipationID: p.ID, ActingAccountID: creator.ID, Hours: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.participation.Accept(ctx, usecase.AcceptInput{ParticipationID: "missing", ActingAccountID: creator.ID, Hours: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	accepted := f.accept(t, p, "2.5")
	assert.Equal(t, domain.ParticipationAccepted, accepted.Status)
	assert.True(t, accepted.Hours.Equal(decimal.RequireFromString("2.5")))

	_, err = f.participation.Accept(ctx, usecase.AcceptInput{ParticipationID: p.ID, ActingAccountID: creator.ID, Hours: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := f.listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AcceptedCount, "a refused accept takes no slot")
	assert.Equal(t, domain.ListingStatusActive, got.Status)
}

func TestParticipation_CapacityFailureLeavesPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	creator := f.openAccount(t, "Cora")
	first := f.openAccount(t, "Hugo")
	second := f.openAccount(t, "Hana")

	listing := f.registerListing(t, creator.ID, domain.ListingKindRequest, 1)
	p1 := f.propose(t, listing.ID, first.ID)
	p2 := f.propose(t, listing.ID, second.ID)

	f.accept(t, p1, "1")

	_, err := f.participation.Accept(ctx, usecase.AcceptInput{ParticipationID: p2.ID, ActingAccountID: creator.ID, Hours: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	reloaded, err := f.participations.GetByID(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationPending, reloaded.Status)
	assert.True(t, reloaded.Hours.IsZero())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CapacityRejections))
}

func TestParticipation_ConcurrentAccepts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const (
		capacity = 3
		helpers  = 10
	)

	creator := f.openAccount(t, "Cora")
	listing := f.registerListing(t, creator.ID, domain.ListingKindRequest, capacity)

	proposals := make([]*domain.Participation, 0, helpers)
	for i := 0; i < helpers; i++ {
		helper := f.openAccount(t, fmt.Sprintf("Helper %d", i))
		proposals = append(proposals, f.propose(t, listing.ID, helper.ID))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for _, p := range proposals {
		wg.Add(1)
		go func(p *domain.Participation) {
			defer wg.Done()
			_, err := f.participation.Accept(ctx, usecase.AcceptInput{
				ParticipationID: p.ID,
				ActingAccountID: creator.ID,
				Hours:           decimal.NewFromInt(1),
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrCapacityExceeded):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, helpers-capacity, refused)

	got, err := f.listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, got.AcceptedCount)
	assert.Equal(t, domain.ListingStatusFull, got.Status)
	require.NoError(t, got.Validate())
}

func TestParticipation_DeclineOrWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	creator := f.openAccount(t, "Cora")
	first := f.openAccount(t, "Hugo")
	second := f.openAccount(t, "Hana")
	outsider := f.openAccount(t, "Olga")

	listing := f.registerListing(t, creator.ID, domain.ListingKindRequest, 1)
	toAccept := f.propose(t, listing.ID, first.ID)
	pending := f.propose(t, listing.ID, second.ID)
	accepted := f.accept(t, toAccept, "2")

	full, err := f.listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ListingStatusFull, full.Status)

	_, err = f.participation.DeclineOrWithdraw(ctx, usecase.DeclineInput{ParticipationID: accepted.ID, ActingAccountID: outsider.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Declining the PENDING one leaves capacity alone.
	declined, err := f.participation.DeclineOrWithdraw(ctx, usecase.DeclineInput{ParticipationID: pending.ID, ActingAccountID: creator.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationDeclined, declined.Status)

	got, err := f.listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AcceptedCount)
	assert.Equal(t, domain.ListingStatusFull, got.Status)

	// Withdrawing the ACCEPTED one releases the slot and reopens the listing.
	withdrawn, err := f.participation.DeclineOrWithdraw(ctx, usecase.DeclineInput{ParticipationID: accepted.ID, ActingAccountID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationCancelled, withdrawn.Status)

	got, err = f.listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AcceptedCount)
	assert.Equal(t, domain.ListingStatusActive, got.Status)

	_, err = f.participation.DeclineOrWithdraw(ctx, usecase.DeclineInput{ParticipationID: accepted.ID, ActingAccountID: creator.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "terminal participation")

	// The helper may propose again once the old proposal is closed.
	again := f.propose(t, listing.ID, first.ID)
	assert.Equal(t, domain.ParticipationPending, again.Status)
}

func TestParticipation_CreatorDeclinesAccepted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	creator := f.openAccount(t, "Cora")
	helper := f.openAccount(t, "Hugo")
	listing := f.registerListing(t, creator.ID, domain.ListingKindRequest, 1)
	p := f.accept(t, f.propose(t, listing.ID, helper.ID), "1")

	declined, err := f.participation.DeclineOrWithdraw(ctx, usecase.DeclineInput{ParticipationID: p.ID, ActingAccountID: creator.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationDeclined, declined.Status)

	got, err := f.listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AcceptedCount)
	assert.Equal(t, domain.ListingStatusActive, got.Status)
}

func TestParticipation_Reads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	creator := f.openAccount(t, "Cora")
	listing := f.registerListing(t, creator.ID, domain.ListingKindRequest, 5)

	var ids []string
	for i := 0; i < 3; i++ {
		helper := f.openAccount(t, fmt.Sprintf("Helper %d", i))
		ids = append(ids, f.propose(t, listing.ID, helper.ID).ID)
	}

	list, err := f.participation.ListByListing(ctx, listing.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[0], list[0].ID)

	_, err = f.participation.ListByListing(ctx, "missing", 10, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.participation.GetParticipation(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, listing.ID, got.ListingID)
}
