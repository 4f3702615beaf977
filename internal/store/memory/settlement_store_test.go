package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofulabs/mofumarket/internal/domain"
)

func newSettlementFixture(t *testing.T) (context.Context, *EventStore, *MemberStore, *PriceHistoryStore, *SettlementStore) {
	t.Helper()
	ctx := context.Background()
	events := NewEventStore()
	members := NewMemberStore()
	prices := NewPriceHistoryStore()

	require.NoError(t, events.Create(ctx, domain.Event{ID: "e1", PartyID: "p1", Status: domain.EventStatusOpen}, []domain.Outcome{
		{EventID: "e1", Name: "yes"}, {EventID: "e1", Name: "no"},
	}))
	require.NoError(t, members.Create(ctx, domain.Member{ID: "m1", PartyID: "p1", DisplayName: "alice", BalanceMofus: 50}))
	require.NoError(t, members.Create(ctx, domain.Member{ID: "m2", PartyID: "p1", DisplayName: "bob", BalanceMofus: 10}))

	return ctx, events, members, prices, NewSettlementStore(events, members, prices)
}

func terminalPoints(eventID string, at time.Time) []domain.PricePoint {
	return []domain.PricePoint{
		{EventID: eventID, Outcome: "yes", Price: 1, CreatedAt: at},
		{EventID: eventID, Outcome: "no", Price: 0, CreatedAt: at},
	}
}

func TestSettlementStore_ApplyAndReverse(t *testing.T) {
	ctx, events, members, prices, store := newSettlementFixture(t)
	at := time.Now().UTC()

	deltas := []domain.BalanceDelta{{MemberID: "m1", Amount: 30}}
	require.NoError(t, store.ApplySettlement(ctx, "e1", "yes", deltas, terminalPoints("e1", at)))

	e, _ := events.GetByID(ctx, "e1")
	assert.Equal(t, domain.EventStatusResolved, e.Status)
	assert.Equal(t, "yes", e.FinalOutcome)

	m1, _ := members.GetByID(ctx, "m1")
	assert.Equal(t, int64(80), m1.BalanceMofus)

	history, _ := prices.ListByEvent(ctx, "e1")
	assert.Len(t, history, 2)

	// Settling an already-resolved event is refused.
	err := store.ApplySettlement(ctx, "e1", "no", nil, nil)
	assert.ErrorIs(t, err, domain.ErrEventNotOpen)

	inverse := []domain.BalanceDelta{{MemberID: "m1", Amount: -30}, {MemberID: "m2", Amount: 5}}
	require.NoError(t, store.ApplyReversal(ctx, "e1", inverse))

	e, _ = events.GetByID(ctx, "e1")
	assert.Equal(t, domain.EventStatusOpen, e.Status)
	assert.Empty(t, e.FinalOutcome)

	m1, _ = members.GetByID(ctx, "m1")
	m2, _ := members.GetByID(ctx, "m2")
	assert.Equal(t, int64(50), m1.BalanceMofus)
	assert.Equal(t, int64(15), m2.BalanceMofus)

	history, _ = prices.ListByEvent(ctx, "e1")
	assert.Empty(t, history, "terminal points are removed on reversal")

	err = store.ApplyReversal(ctx, "e1", nil)
	assert.ErrorIs(t, err, domain.ErrEventNotResolved)
}

func TestSettlementStore_AllOrNothing(t *testing.T) {
	ctx, events, members, _, store := newSettlementFixture(t)

	// m2 cannot cover a 20-mofu debit, so the whole batch must fail and m1
	// must remain uncredited.
	deltas := []domain.BalanceDelta{
		{MemberID: "m1", Amount: 100},
		{MemberID: "m2", Amount: -20},
	}
	err := store.ApplySettlement(ctx, "e1", "yes", deltas, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	m1, _ := members.GetByID(ctx, "m1")
	m2, _ := members.GetByID(ctx, "m2")
	assert.Equal(t, int64(50), m1.BalanceMofus)
	assert.Equal(t, int64(10), m2.BalanceMofus)

	e, _ := events.GetByID(ctx, "e1")
	assert.Equal(t, domain.EventStatusOpen, e.Status, "event stays open when deltas fail")
}

func TestSettlementStore_AggregatesPerMember(t *testing.T) {
	ctx, _, members, _, store := newSettlementFixture(t)

	// Individually the debit exceeds m2's balance, but the aggregate per
	// member is what counts: +30 -35 nets to -5 against a balance of 10.
	deltas := []domain.BalanceDelta{
		{MemberID: "m2", Amount: 30},
		{MemberID: "m2", Amount: -35},
	}
	require.NoError(t, store.ApplySettlement(ctx, "e1", "no", deltas, nil))

	m2, _ := members.GetByID(ctx, "m2")
	assert.Equal(t, int64(5), m2.BalanceMofus)
}
