package domain

import "time"

// Bet is an immutable stake on an event outcome. Bets are never mutated or
// deleted once placed; reversing a settlement undoes its balance effects
// but leaves the bet records untouched. CreatedAt doubles as the placement
// order used for deterministic payout distribution.
type Bet struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	MemberID   string    `json:"member_id"`
	Outcome    string    `json:"outcome_name"`
	StakeMofus int64     `json:"stake_mofus"`
	PriceAtBet float64   `json:"price_at_bet"`
	CreatedAt  time.Time `json:"created_at"`
}

// StakePool sums the non-withdrawn stake per outcome for an event. Outcomes
// with no bets are present with a zero total so the pricing engine sees the
// full outcome set.
func StakePool(outcomes []Outcome, bets []Bet) map[string]int64 {
	stakes := make(map[string]int64, len(outcomes))
	for _, o := range outcomes {
		stakes[o.Name] = 0
	}
	for _, b := range bets {
		if _, ok := stakes[b.Outcome]; ok {
			stakes[b.Outcome] += b.StakeMofus
		}
	}
	return stakes
}
