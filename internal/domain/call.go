package domain

import "time"

// Call is a member's proposed resolution for an event. Calls are
// append-only: reversing one flips the Reversed flag rather than deleting
// the record, preserving the audit history. Any non-reversed call freezes
// bet placement on its event.
type Call struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	MemberID        string    `json:"member_id"`
	ProposedOutcome string    `json:"proposed_outcome"`
	Justification   string    `json:"justification,omitempty"`
	Reversed        bool      `json:"is_reversed"`
	CreatedAt       time.Time `json:"created_at"`
}
