package engine

import (
	"sort"
	"time"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// BetPayout pairs a winning bet with its computed payout for auditability.
// The payout already contains the bettor's own stake, which was debited at
// placement time.
type BetPayout struct {
	Bet    domain.Bet
	Payout int64
}

// Settlement is the full output of confirming an outcome: the balance
// deltas to apply, the terminal price points to append, and the audit
// trail of per-bet payouts. Nothing has been persisted when a Settlement
// is returned; the caller commits it through a SettlementStore as one
// all-or-nothing unit.
type Settlement struct {
	EventID           string
	Outcome           string
	TotalWinningStake int64
	TotalLosingStake  int64
	Payouts           []BetPayout
	Deltas            []domain.BalanceDelta
	PricePoints       []domain.PricePoint
}

// Reversal is the exact inverse of a prior Settlement: winners are debited
// the payouts they received and losers are credited their forfeited stakes.
// The terminal price points are identified by the SettlementStore and
// removed when the reversal is applied.
type Reversal struct {
	EventID           string
	Outcome           string
	TotalWinningStake int64
	TotalLosingStake  int64
	Deltas            []domain.BalanceDelta
}

// Confirm settles an event on the given outcome. It snapshots the bets into
// winning and losing sets, distributes the losing pool across the winners,
// and emits the balance deltas plus the terminal price points (1 for the
// winning outcome, 0 for the rest). Losing stakes were already debited at
// placement time, so losers get no delta. With no bets at all only the
// terminal points are emitted.
//
// Preconditions: the event must be open and outcome must name one of its
// outcomes. A distribution that fails the conservation check returns
// ErrInvariantViolation and the settlement must not be applied.
func Confirm(event domain.Event, outcomes []domain.Outcome, bets []domain.Bet, outcome string, at time.Time) (Settlement, error) {
	if event.Status != domain.EventStatusOpen {
		return Settlement{}, domain.ErrEventNotOpen
	}
	if !hasOutcome(outcomes, outcome) {
		return Settlement{}, domain.ErrUnknownOutcome
	}

	winning, losing := partition(bets, outcome)
	s := Settlement{
		EventID:           event.ID,
		Outcome:           outcome,
		TotalWinningStake: sumStakes(winning),
		TotalLosingStake:  sumStakes(losing),
	}

	if len(winning) > 0 {
		stakes := make([]int64, len(winning))
		for i, b := range winning {
			stakes[i] = b.StakeMofus
		}
		payouts := Distribute(stakes, s.TotalWinningStake, s.TotalLosingStake)

		var total int64
		for i, b := range winning {
			total += payouts[i]
			s.Payouts = append(s.Payouts, BetPayout{Bet: b, Payout: payouts[i]})
			s.Deltas = append(s.Deltas, domain.BalanceDelta{MemberID: b.MemberID, Amount: payouts[i]})
		}
		if s.TotalLosingStake > 0 && total != s.TotalWinningStake+s.TotalLosingStake {
			return Settlement{}, domain.ErrInvariantViolation
		}
		if s.TotalLosingStake == 0 && total != s.TotalWinningStake {
			return Settlement{}, domain.ErrInvariantViolation
		}
	}

	for _, o := range sortedOutcomes(outcomes) {
		price := 0.0
		if o.Name == outcome {
			price = 1.0
		}
		s.PricePoints = append(s.PricePoints, domain.PricePoint{
			EventID:   event.ID,
			Outcome:   o.Name,
			Price:     price,
			CreatedAt: at,
		})
	}

	return s, nil
}

// Reverse computes the exact undo of a prior confirmation. It re-derives
// the same winning/losing split from the same bet snapshot (bet placement
// is blocked while an event is resolved, so the snapshot cannot have
// drifted) and recomputes the identical payouts; determinism of Distribute
// makes the inversion exact. Winners are debited their payouts and losers
// credited their original stakes.
func Reverse(event domain.Event, bets []domain.Bet) (Reversal, error) {
	if event.Status != domain.EventStatusResolved || event.FinalOutcome == "" {
		return Reversal{}, domain.ErrEventNotResolved
	}

	winning, losing := partition(bets, event.FinalOutcome)
	r := Reversal{
		EventID:           event.ID,
		Outcome:           event.FinalOutcome,
		TotalWinningStake: sumStakes(winning),
		TotalLosingStake:  sumStakes(losing),
	}

	if len(winning) > 0 {
		stakes := make([]int64, len(winning))
		for i, b := range winning {
			stakes[i] = b.StakeMofus
		}
		payouts := Distribute(stakes, r.TotalWinningStake, r.TotalLosingStake)
		for i, b := range winning {
			r.Deltas = append(r.Deltas, domain.BalanceDelta{MemberID: b.MemberID, Amount: -payouts[i]})
		}
	}
	for _, b := range losing {
		r.Deltas = append(r.Deltas, domain.BalanceDelta{MemberID: b.MemberID, Amount: b.StakeMofus})
	}

	return r, nil
}

func hasOutcome(outcomes []domain.Outcome, name string) bool {
	for _, o := range outcomes {
		if o.Name == name {
			return true
		}
	}
	return false
}

// partition splits bets into winning and losing sets, preserving placement
// order within each.
func partition(bets []domain.Bet, outcome string) (winning, losing []domain.Bet) {
	for _, b := range bets {
		if b.Outcome == outcome {
			winning = append(winning, b)
		} else {
			losing = append(losing, b)
		}
	}
	return winning, losing
}

func sumStakes(bets []domain.Bet) int64 {
	var total int64
	for _, b := range bets {
		total += b.StakeMofus
	}
	return total
}

func sortedOutcomes(outcomes []domain.Outcome) []domain.Outcome {
	sorted := make([]domain.Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}
