package engine

import "github.com/mofulabs/mofumarket/internal/domain"

// ActiveCall returns the most recent non-reversed call for an event, if
// any. While such a call exists the market is frozen: no new bets may be
// placed until the call is either reversed or confirmed via settlement.
func ActiveCall(calls []domain.Call) (domain.Call, bool) {
	var active domain.Call
	found := false
	for _, c := range calls {
		if c.Reversed {
			continue
		}
		if !found || c.CreatedAt.After(active.CreatedAt) {
			active = c
			found = true
		}
	}
	return active, found
}

// Frozen reports whether bet placement is blocked by an active call.
func Frozen(calls []domain.Call) bool {
	_, found := ActiveCall(calls)
	return found
}

// ValidateCall checks that a new call may be proposed: the event must be
// open and the proposed outcome must belong to it. Multiple calls may
// coexist; history is append-only.
func ValidateCall(event domain.Event, outcomes []domain.Outcome, proposedOutcome string) error {
	if event.Status != domain.EventStatusOpen {
		return domain.ErrEventNotOpen
	}
	if !hasOutcome(outcomes, proposedOutcome) {
		return domain.ErrUnknownOutcome
	}
	return nil
}

// ValidateReverseCall checks that a call may be retracted. Reversing a call
// only re-enables betting; unlike reversing a confirmation it has no
// balance effects.
func ValidateReverseCall(event domain.Event, call domain.Call) error {
	if event.Status != domain.EventStatusOpen {
		return domain.ErrEventNotOpen
	}
	if call.Reversed {
		return domain.ErrCallReversed
	}
	return nil
}
