package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofulabs/mofumarket/internal/domain"
)

func TestPartyService_CreateParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	party, creator, err := f.party.CreateParty(ctx, "Game Night!", "alice", 500)
	require.NoError(t, err)

	assert.Equal(t, "game-night", party.Slug)
	assert.Len(t, party.Code, 6)
	assert.NotContains(t, party.Code, "O")
	assert.NotContains(t, party.Code, "0")
	assert.Equal(t, int64(500), party.StartingMofus)

	assert.True(t, creator.IsCreator)
	assert.Equal(t, int64(500), creator.BalanceMofus)
	assert.Equal(t, party.ID, creator.PartyID)
}

func TestPartyService_CreateParty_DefaultStake(t *testing.T) {
	f := newFixture(t)

	party, creator, err := f.party.CreateParty(context.Background(), "movie club", "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingMofus, party.StartingMofus)
	assert.Equal(t, DefaultStartingMofus, creator.BalanceMofus)
}

func TestPartyService_CreateParty_SlugCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _, err := f.party.CreateParty(ctx, "Game Night", "alice", 100)
	require.NoError(t, err)

	second, _, err := f.party.CreateParty(ctx, "Game Night", "bob", 100)
	require.NoError(t, err)

	assert.NotEqual(t, first.Slug, second.Slug)
	assert.True(t, strings.HasPrefix(second.Slug, "game-night-"))
}

func TestPartyService_CreateParty_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.party.CreateParty(ctx, "  ", "alice", 100)
	assert.Error(t, err)

	_, _, err = f.party.CreateParty(ctx, "party", "", 100)
	assert.Error(t, err)
}

func TestPartyService_JoinParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	party, _, err := f.party.CreateParty(ctx, "game night", "alice", 200)
	require.NoError(t, err)

	joined, member, err := f.party.JoinParty(ctx, party.Code, "bob")
	require.NoError(t, err)
	assert.Equal(t, party.ID, joined.ID)
	assert.Equal(t, int64(200), member.BalanceMofus)
	assert.False(t, member.IsCreator)

	// Join codes are case-insensitive.
	_, again, err := f.party.JoinParty(ctx, strings.ToLower(party.Code), "bob")
	require.NoError(t, err)
	assert.Equal(t, member.ID, again.ID, "rejoining under the same name returns the existing member")

	members, err := f.party.ListMembers(ctx, party.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2, "idempotent join must not mint a second member")
}

func TestPartyService_JoinParty_UnknownCode(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.party.JoinParty(context.Background(), "ZZZZZZ", "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPartyService_KickMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	party, creator, err := f.party.CreateParty(ctx, "game night", "alice", 100)
	require.NoError(t, err)
	_, bob, err := f.party.JoinParty(ctx, party.Code, "bob")
	require.NoError(t, err)

	// Only the creator may kick.
	err = f.party.KickMember(ctx, party.ID, bob.ID, creator.ID)
	assert.ErrorIs(t, err, domain.ErrNotCreator)

	// The creator cannot be kicked, not even by themselves.
	err = f.party.KickMember(ctx, party.ID, creator.ID, creator.ID)
	assert.Error(t, err)

	require.NoError(t, f.party.KickMember(ctx, party.ID, creator.ID, bob.ID))

	members, err := f.party.ListMembers(ctx, party.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
