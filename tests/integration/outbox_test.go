package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/tests/testutil"
)

func TestOutboxEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	engine := testDB.NewEngine()
	testDB.TruncateAll(ctx)

	creator := engine.OpenAccount(t, ctx, "creator")
	helper := engine.OpenAccount(t, ctx, "helper")
	p := engine.AcceptedExchange(t, ctx, creator.ID, helper.ID, decimal.NewFromInt(2))

	_, err := engine.Settlement.CompleteExchange(ctx, p.ID, helper.ID)
	require.NoError(t, err)
	_, err = engine.Settlement.CompleteExchange(ctx, p.ID, creator.ID)
	require.NoError(t, err)

	events, err := engine.OutboxRepo.GetByAggregate(ctx, domain.AggregateTypeParticipation, p.ID, 10, 0)
	require.NoError(t, err)

	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	assert.Equal(t, []string{
		domain.EventTypeParticipationProposed,
		domain.EventTypeParticipationAccepted,
		domain.EventTypeParticipationCompleted,
	}, types)

	completed := events[2]
	hours, ok := completed.Payload["hours"].(string)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString(hours).Equal(decimal.NewFromInt(2)))
	assert.Equal(t, helper.ID, completed.Payload["provider_id"])

	unpublished, err := engine.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, unpublished, 3)

	require.NoError(t, engine.OutboxRepo.MarkPublished(ctx, events[0].ID, events[0].CreatedAt))
	unpublished, err = engine.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, unpublished, 2)
}
