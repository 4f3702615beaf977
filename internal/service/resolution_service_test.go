package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// seedMarket sets up a party of three with an open yes/no event and a bet
// book: bob 30 on yes, carol 50 on no, alice (the creator) 20 on yes.
func seedMarket(t *testing.T, f *fixture) (eventID string, alice, bob, carol domain.Member) {
	t.Helper()
	ctx := context.Background()

	party, creator, err := f.party.CreateParty(ctx, "game night", "alice", 100)
	require.NoError(t, err)
	_, bobM, err := f.party.JoinParty(ctx, party.Code, "bob")
	require.NoError(t, err)
	_, carolM, err := f.party.JoinParty(ctx, party.Code, "carol")
	require.NoError(t, err)

	view, err := f.market.CreateEvent(ctx, party.ID, creator.ID, "Will it rain?", "", nil)
	require.NoError(t, err)

	_, err = f.market.PlaceBet(ctx, view.Event.ID, bobM.ID, "yes", 30)
	require.NoError(t, err)
	_, err = f.market.PlaceBet(ctx, view.Event.ID, carolM.ID, "no", 50)
	require.NoError(t, err)
	_, err = f.market.PlaceBet(ctx, view.Event.ID, creator.ID, "yes", 20)
	require.NoError(t, err)

	return view.Event.ID, creator, bobM, carolM
}

func balance(t *testing.T, f *fixture, memberID string) int64 {
	t.Helper()
	m, err := f.members.GetByID(context.Background(), memberID)
	require.NoError(t, err)
	return m.BalanceMofus
}

func TestResolutionService_ConfirmOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID, alice, bob, carol := seedMarket(t, f)

	settlement, err := f.resolution.ConfirmOutcome(ctx, eventID, alice.ID, "yes")
	require.NoError(t, err)

	assert.Equal(t, int64(50), settlement.TotalWinningStake)
	assert.Equal(t, int64(50), settlement.TotalLosingStake)

	// Winners get their stake back plus a proportional cut of the losing
	// pool: bob 30+30, alice 20+20. Carol's stake was spent at placement.
	assert.Equal(t, int64(130), balance(t, f, bob.ID))
	assert.Equal(t, int64(120), balance(t, f, alice.ID))
	assert.Equal(t, int64(50), balance(t, f, carol.ID))

	view, err := f.market.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusResolved, view.Event.Status)
	assert.Equal(t, "yes", view.Event.FinalOutcome)
	assert.Equal(t, 1.0, view.Prices["yes"])
	assert.Equal(t, 0.0, view.Prices["no"])

	// Betting on a resolved event is blocked.
	_, err = f.market.PlaceBet(ctx, eventID, bob.ID, "yes", 5)
	assert.ErrorIs(t, err, domain.ErrEventNotOpen)

	// So is calling it.
	_, err = f.resolution.CallEvent(ctx, eventID, bob.ID, "no", "")
	assert.ErrorIs(t, err, domain.ErrEventNotOpen)

	// And resolving it again.
	_, err = f.resolution.ConfirmOutcome(ctx, eventID, alice.ID, "no")
	assert.ErrorIs(t, err, domain.ErrEventNotOpen)
}

func TestResolutionService_ConfirmOutcome_Gating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID, alice, bob, _ := seedMarket(t, f)

	_, err := f.resolution.ConfirmOutcome(ctx, eventID, bob.ID, "yes")
	assert.ErrorIs(t, err, domain.ErrNotCreator)

	_, err = f.resolution.ConfirmOutcome(ctx, eventID, alice.ID, "maybe")
	assert.ErrorIs(t, err, domain.ErrUnknownOutcome)
}

func TestResolutionService_ConfirmIndependentOfCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID, alice, bob, _ := seedMarket(t, f)

	// A pending call for "no" does not bind the creator.
	_, err := f.resolution.CallEvent(ctx, eventID, bob.ID, "no", "trust me")
	require.NoError(t, err)

	settlement, err := f.resolution.ConfirmOutcome(ctx, eventID, alice.ID, "yes")
	require.NoError(t, err)
	assert.Equal(t, "yes", settlement.Outcome)
}

func TestResolutionService_ReverseOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID, alice, bob, carol := seedMarket(t, f)

	before := map[string]int64{
		"alice": balance(t, f, alice.ID),
		"bob":   balance(t, f, bob.ID),
		"carol": balance(t, f, carol.ID),
	}

	_, err := f.resolution.ConfirmOutcome(ctx, eventID, alice.ID, "yes")
	require.NoError(t, err)

	historyBefore, err := f.market.PriceHistory(ctx, eventID)
	require.NoError(t, err)

	_, err = f.resolution.ReverseOutcome(ctx, eventID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotCreator)

	reversal, err := f.resolution.ReverseOutcome(ctx, eventID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "yes", reversal.Outcome)

	// Every balance is exactly as it was the moment before confirmation:
	// winners returned their payouts, carol got her forfeited stake back.
	assert.Equal(t, before["alice"], balance(t, f, alice.ID))
	assert.Equal(t, before["bob"], balance(t, f, bob.ID))
	assert.Equal(t, before["carol"]+50, balance(t, f, carol.ID))

	view, err := f.market.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusOpen, view.Event.Status)
	assert.Empty(t, view.Event.FinalOutcome)

	// The terminal 1/0 points are gone; the rest of the series survives.
	historyAfter, err := f.market.PriceHistory(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, historyAfter, len(historyBefore)-2)
	for _, p := range historyAfter {
		assert.Greater(t, p.Price, 0.0)
		assert.Less(t, p.Price, 1.0)
	}

	// Reversing twice is impossible.
	_, err = f.resolution.ReverseOutcome(ctx, eventID, alice.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotResolved)

	// Betting reopens after the reversal.
	_, err = f.market.PlaceBet(ctx, eventID, bob.ID, "no", 5)
	assert.NoError(t, err)
}

func TestResolutionService_Calls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID, alice, bob, carol := seedMarket(t, f)

	call, err := f.resolution.CallEvent(ctx, eventID, bob.ID, "yes", "saw it happen")
	require.NoError(t, err)
	assert.Equal(t, "saw it happen", call.Justification)

	_, err = f.resolution.CallEvent(ctx, eventID, bob.ID, "maybe", "")
	assert.ErrorIs(t, err, domain.ErrUnknownOutcome)

	// Neither a bystander nor a double reversal is allowed.
	err = f.resolution.ReverseCall(ctx, call.ID, carol.ID)
	assert.ErrorIs(t, err, domain.ErrNotCreator)

	// The creator can retract someone else's call.
	require.NoError(t, f.resolution.ReverseCall(ctx, call.ID, alice.ID))

	err = f.resolution.ReverseCall(ctx, call.ID, alice.ID)
	assert.ErrorIs(t, err, domain.ErrCallReversed)

	calls, err := f.resolution.ListCalls(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Reversed, "history is preserved, never deleted")
}
