package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// seedParty creates a party with a creator and one extra member.
func seedParty(t *testing.T, f *fixture, startingMofus int64) (domain.Party, domain.Member, domain.Member) {
	t.Helper()
	ctx := context.Background()

	party, creator, err := f.party.CreateParty(ctx, "game night", "alice", startingMofus)
	require.NoError(t, err)
	_, bob, err := f.party.JoinParty(ctx, party.Code, "bob")
	require.NoError(t, err)
	return party, creator, bob
}

func TestMarketService_CreateEvent_Defaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	party, creator, _ := seedParty(t, f, 100)

	view, err := f.market.CreateEvent(ctx, party.ID, creator.ID, "Will it rain?", "", nil)
	require.NoError(t, err)

	require.Len(t, view.Outcomes, 2)
	assert.Equal(t, "yes", view.Outcomes[0].Name)
	assert.Equal(t, "#22c55e", view.Outcomes[0].Color)
	assert.Equal(t, "no", view.Outcomes[1].Name)
	assert.Equal(t, "#ef4444", view.Outcomes[1].Color)

	// No stakes yet: outcomes are equiprobable.
	assert.InDelta(t, 0.5, view.Prices["yes"], 1e-12)
	assert.InDelta(t, 0.5, view.Prices["no"], 1e-12)

	history, err := f.market.PriceHistory(ctx, view.Event.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2, "creation writes the initial snapshot")
}

func TestMarketService_CreateEvent_CreatorOnly(t *testing.T) {
	f := newFixture(t)
	party, _, bob := seedParty(t, f, 100)

	_, err := f.market.CreateEvent(context.Background(), party.ID, bob.ID, "Will it rain?", "", nil)
	assert.ErrorIs(t, err, domain.ErrNotCreator)
}

func TestMarketService_CreateEvent_CustomOutcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	party, creator, _ := seedParty(t, f, 100)

	view, err := f.market.CreateEvent(ctx, party.ID, creator.ID, "Who wins?", "", []string{"carol", "dave", "erin"})
	require.NoError(t, err)
	require.Len(t, view.Outcomes, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{
		view.Outcomes[0].DisplayOrder, view.Outcomes[1].DisplayOrder, view.Outcomes[2].DisplayOrder,
	})

	_, err = f.market.CreateEvent(ctx, party.ID, creator.ID, "dup", "", []string{"a", "a"})
	assert.Error(t, err)
}

func TestMarketService_PlaceBet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	party, creator, bob := seedParty(t, f, 100)

	view, err := f.market.CreateEvent(ctx, party.ID, creator.ID, "Will it rain?", "", nil)
	require.NoError(t, err)
	eventID := view.Event.ID

	bet, err := f.market.PlaceBet(ctx, eventID, bob.ID, "yes", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(30), bet.StakeMofus)
	assert.InDelta(t, 0.5, bet.PriceAtBet, 1e-12, "price recorded is the one before the stake lands")

	member, err := f.members.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), member.BalanceMofus)

	// The new snapshot reflects the stake: (30+1)/(30+2).
	after, err := f.market.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.InDelta(t, 31.0/32.0, after.Prices["yes"], 1e-12)
	assert.InDelta(t, 1.0/32.0, after.Prices["no"], 1e-12)

	history, err := f.market.PriceHistory(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, history, 4, "one snapshot at creation, one after the bet")
}

func TestMarketService_PlaceBet_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	party, creator, bob := seedParty(t, f, 100)

	view, err := f.market.CreateEvent(ctx, party.ID, creator.ID, "Will it rain?", "", nil)
	require.NoError(t, err)
	eventID := view.Event.ID

	_, err = f.market.PlaceBet(ctx, eventID, bob.ID, "yes", 0)
	assert.Error(t, err)

	_, err = f.market.PlaceBet(ctx, eventID, bob.ID, "maybe", 10)
	assert.ErrorIs(t, err, domain.ErrUnknownOutcome)

	_, err = f.market.PlaceBet(ctx, eventID, bob.ID, "yes", 1000)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	member, err := f.members.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), member.BalanceMofus, "failed bets never move mofus")
}

func TestMarketService_PlaceBet_FrozenByCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	party, creator, bob := seedParty(t, f, 100)

	view, err := f.market.CreateEvent(ctx, party.ID, creator.ID, "Will it rain?", "", nil)
	require.NoError(t, err)
	eventID := view.Event.ID

	call, err := f.resolution.CallEvent(ctx, eventID, bob.ID, "yes", "it is pouring")
	require.NoError(t, err)

	_, err = f.market.PlaceBet(ctx, eventID, bob.ID, "yes", 10)
	assert.ErrorIs(t, err, domain.ErrMarketFrozen)

	got, err := f.market.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, got.Frozen)

	// Reversing the call thaws the market.
	require.NoError(t, f.resolution.ReverseCall(ctx, call.ID, bob.ID))

	_, err = f.market.PlaceBet(ctx, eventID, bob.ID, "yes", 10)
	assert.NoError(t, err)
}

func TestMarketService_UpdateTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	party, creator, bob := seedParty(t, f, 100)

	view, err := f.market.CreateEvent(ctx, party.ID, creator.ID, "Will it rain?", "", nil)
	require.NoError(t, err)

	err = f.market.UpdateTitle(ctx, view.Event.ID, bob.ID, "Will it rain today?")
	assert.ErrorIs(t, err, domain.ErrNotCreator)

	require.NoError(t, f.market.UpdateTitle(ctx, view.Event.ID, creator.ID, "Will it rain today?"))

	got, err := f.market.GetEvent(ctx, view.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Will it rain today?", got.Event.Title)
}

func TestMarketService_ListPartyBets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	party, creator, bob := seedParty(t, f, 100)

	view, err := f.market.CreateEvent(ctx, party.ID, creator.ID, "Will it rain?", "", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.market.PlaceBet(ctx, view.Event.ID, bob.ID, "yes", 5)
		require.NoError(t, err)
	}

	bets, err := f.market.ListPartyBets(ctx, party.ID, domain.ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, bets, 2)
}
