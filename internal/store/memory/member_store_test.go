package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofulabs/mofumarket/internal/domain"
)

func TestMemberStore_AdjustBalance(t *testing.T) {
	store := NewMemberStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.Member{ID: "m1", PartyID: "p1", DisplayName: "alice", BalanceMofus: 100}))

	require.NoError(t, store.AdjustBalance(ctx, "m1", -60))
	m, err := store.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), m.BalanceMofus)

	// A debit below zero is rejected and leaves the balance untouched.
	err = store.AdjustBalance(ctx, "m1", -41)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	m, _ = store.GetByID(ctx, "m1")
	assert.Equal(t, int64(40), m.BalanceMofus)

	assert.ErrorIs(t, store.AdjustBalance(ctx, "missing", 10), domain.ErrNotFound)
}

func TestMemberStore_DuplicateDisplayName(t *testing.T) {
	store := NewMemberStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.Member{ID: "m1", PartyID: "p1", DisplayName: "alice"}))

	err := store.Create(ctx, domain.Member{ID: "m2", PartyID: "p1", DisplayName: "alice"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Same name in another party is fine.
	assert.NoError(t, store.Create(ctx, domain.Member{ID: "m3", PartyID: "p2", DisplayName: "alice"}))
}
