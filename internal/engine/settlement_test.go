package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofulabs/mofumarket/internal/domain"
)

var settleAt = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

func yesNoOutcomes(eventID string) []domain.Outcome {
	return []domain.Outcome{
		{EventID: eventID, Name: "yes", Color: "#22c55e", DisplayOrder: 0},
		{EventID: eventID, Name: "no", Color: "#ef4444", DisplayOrder: 1},
	}
}

func openEvent(id string) domain.Event {
	return domain.Event{ID: id, PartyID: "party-1", Title: "will it rain", Status: domain.EventStatusOpen}
}

func resolvedEvent(id, outcome string) domain.Event {
	e := openEvent(id)
	e.Status = domain.EventStatusResolved
	e.FinalOutcome = outcome
	return e
}

func bet(id, member, outcome string, stake int64, order int) domain.Bet {
	return domain.Bet{
		ID:         id,
		EventID:    "evt-1",
		MemberID:   member,
		Outcome:    outcome,
		StakeMofus: stake,
		CreatedAt:  settleAt.Add(time.Duration(order) * time.Minute),
	}
}

func TestConfirm_DistributesLosingPool(t *testing.T) {
	bets := []domain.Bet{
		bet("b1", "alice", "yes", 100, 0),
		bet("b2", "bob", "yes", 50, 1),
		bet("b3", "carol", "no", 150, 2),
	}

	s, err := Confirm(openEvent("evt-1"), yesNoOutcomes("evt-1"), bets, "yes", settleAt)
	require.NoError(t, err)

	assert.Equal(t, int64(150), s.TotalWinningStake)
	assert.Equal(t, int64(150), s.TotalLosingStake)

	require.Len(t, s.Payouts, 2)
	assert.Equal(t, int64(200), s.Payouts[0].Payout)
	assert.Equal(t, int64(100), s.Payouts[1].Payout)

	// Only winners receive deltas; the losing stake was spent at placement.
	require.Len(t, s.Deltas, 2)
	assert.Equal(t, domain.BalanceDelta{MemberID: "alice", Amount: 200}, s.Deltas[0])
	assert.Equal(t, domain.BalanceDelta{MemberID: "bob", Amount: 100}, s.Deltas[1])
}

func TestConfirm_TerminalPricePoints(t *testing.T) {
	s, err := Confirm(openEvent("evt-1"), yesNoOutcomes("evt-1"), nil, "yes", settleAt)
	require.NoError(t, err)

	assert.Empty(t, s.Deltas, "no bets means no balance mutation")
	require.Len(t, s.PricePoints, 2)

	byOutcome := map[string]float64{}
	for _, pt := range s.PricePoints {
		byOutcome[pt.Outcome] = pt.Price
		assert.Equal(t, settleAt, pt.CreatedAt)
	}
	assert.Equal(t, 1.0, byOutcome["yes"])
	assert.Equal(t, 0.0, byOutcome["no"])
}

func TestConfirm_NoLosers(t *testing.T) {
	bets := []domain.Bet{
		bet("b1", "alice", "yes", 75, 0),
		bet("b2", "bob", "yes", 25, 1),
	}

	s, err := Confirm(openEvent("evt-1"), yesNoOutcomes("evt-1"), bets, "yes", settleAt)
	require.NoError(t, err)

	// Winners just get their stakes back.
	require.Len(t, s.Deltas, 2)
	assert.Equal(t, int64(75), s.Deltas[0].Amount)
	assert.Equal(t, int64(25), s.Deltas[1].Amount)
}

func TestConfirm_NoWinners(t *testing.T) {
	bets := []domain.Bet{
		bet("b1", "carol", "no", 150, 0),
	}

	s, err := Confirm(openEvent("evt-1"), yesNoOutcomes("evt-1"), bets, "yes", settleAt)
	require.NoError(t, err)

	assert.Zero(t, s.TotalWinningStake)
	assert.Equal(t, int64(150), s.TotalLosingStake)
	assert.Empty(t, s.Deltas, "losing stakes stay spent when nobody won")
}

func TestConfirm_Preconditions(t *testing.T) {
	_, err := Confirm(resolvedEvent("evt-1", "yes"), yesNoOutcomes("evt-1"), nil, "yes", settleAt)
	assert.ErrorIs(t, err, domain.ErrEventNotOpen)

	_, err = Confirm(openEvent("evt-1"), yesNoOutcomes("evt-1"), nil, "maybe", settleAt)
	assert.ErrorIs(t, err, domain.ErrUnknownOutcome)
}

func TestReverse_Preconditions(t *testing.T) {
	_, err := Reverse(openEvent("evt-1"), nil)
	assert.ErrorIs(t, err, domain.ErrEventNotResolved)
}

func TestReverse_InvertsSettlement(t *testing.T) {
	bets := []domain.Bet{
		bet("b1", "alice", "yes", 1, 0),
		bet("b2", "bob", "yes", 2, 1),
		bet("b3", "carol", "no", 2, 2),
	}

	s, err := Confirm(openEvent("evt-1"), yesNoOutcomes("evt-1"), bets, "yes", settleAt)
	require.NoError(t, err)

	r, err := Reverse(resolvedEvent("evt-1", "yes"), bets)
	require.NoError(t, err)

	// Every settlement credit has a matching reversal debit, plus losers
	// recover their stakes; net effect across both operations is zero for
	// every member.
	net := map[string]int64{}
	for _, d := range s.Deltas {
		net[d.MemberID] += d.Amount
	}
	for _, d := range r.Deltas {
		net[d.MemberID] += d.Amount
	}
	// Carol's stake was debited at placement, outside the settlement pair,
	// so her reversal credit restores exactly that debit.
	assert.Equal(t, int64(0), net["alice"])
	assert.Equal(t, int64(0), net["bob"])
	assert.Equal(t, int64(2), net["carol"])
}

func TestConfirmReverse_RoundTripConservation(t *testing.T) {
	cases := []struct {
		name string
		bets []domain.Bet
	}{
		{"rounding pool", []domain.Bet{
			bet("b1", "m1", "yes", 1, 0),
			bet("b2", "m2", "yes", 2, 1),
			bet("b3", "m3", "no", 2, 2),
		}},
		{"many members", []domain.Bet{
			bet("b1", "m1", "yes", 3, 0),
			bet("b2", "m2", "yes", 5, 1),
			bet("b3", "m3", "yes", 7, 2),
			bet("b4", "m4", "no", 11, 3),
			bet("b5", "m5", "no", 13, 4),
		}},
		{"repeat bettor", []domain.Bet{
			bet("b1", "m1", "yes", 10, 0),
			bet("b2", "m1", "yes", 15, 1),
			bet("b3", "m2", "no", 9, 2),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Confirm(openEvent("evt-1"), yesNoOutcomes("evt-1"), tc.bets, "yes", settleAt)
			require.NoError(t, err)

			r, err := Reverse(resolvedEvent("evt-1", "yes"), tc.bets)
			require.NoError(t, err)

			var settled, reversed int64
			for _, d := range s.Deltas {
				settled += d.Amount
			}
			for _, d := range r.Deltas {
				reversed += d.Amount
			}

			// Settlement pays out the whole pool; the reversal claws the
			// payouts back and returns the losing stakes, so the pair nets
			// to exactly the losing pool flowing back to the losers.
			assert.Equal(t, s.TotalWinningStake+s.TotalLosingStake, settled)
			assert.Equal(t, s.TotalLosingStake, settled+reversed)
		})
	}
}
