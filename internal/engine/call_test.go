package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofulabs/mofumarket/internal/domain"
)

func call(id string, reversed bool, order int) domain.Call {
	return domain.Call{
		ID:              id,
		EventID:         "evt-1",
		MemberID:        "m1",
		ProposedOutcome: "yes",
		Reversed:        reversed,
		CreatedAt:       time.Date(2025, 6, 1, 12, order, 0, 0, time.UTC),
	}
}

func TestActiveCall_MostRecentNonReversed(t *testing.T) {
	calls := []domain.Call{
		call("c1", true, 0),
		call("c2", false, 1),
		call("c3", false, 2),
		call("c4", true, 3),
	}

	active, found := ActiveCall(calls)
	require.True(t, found)
	assert.Equal(t, "c3", active.ID)
}

func TestActiveCall_AllReversed(t *testing.T) {
	calls := []domain.Call{
		call("c1", true, 0),
		call("c2", true, 1),
	}

	_, found := ActiveCall(calls)
	assert.False(t, found)
	assert.False(t, Frozen(calls))
}

func TestFrozen(t *testing.T) {
	assert.False(t, Frozen(nil))
	assert.True(t, Frozen([]domain.Call{call("c1", false, 0)}))
}

func TestValidateCall(t *testing.T) {
	outcomes := yesNoOutcomes("evt-1")

	assert.NoError(t, ValidateCall(openEvent("evt-1"), outcomes, "yes"))
	assert.ErrorIs(t, ValidateCall(resolvedEvent("evt-1", "yes"), outcomes, "yes"), domain.ErrEventNotOpen)
	assert.ErrorIs(t, ValidateCall(openEvent("evt-1"), outcomes, "maybe"), domain.ErrUnknownOutcome)
}

func TestValidateReverseCall(t *testing.T) {
	assert.NoError(t, ValidateReverseCall(openEvent("evt-1"), call("c1", false, 0)))
	assert.ErrorIs(t, ValidateReverseCall(openEvent("evt-1"), call("c1", true, 0)), domain.ErrCallReversed)
	assert.ErrorIs(t, ValidateReverseCall(resolvedEvent("evt-1", "yes"), call("c1", false, 0)), domain.ErrEventNotOpen)
}
