// Package domain defines the core entities of the mofumarket prediction
// market and the store interfaces through which they are persisted.
package domain

import "time"

// Party is a closed group of members betting against each other with a
// private pool of mofus. Creating a party is the only operation that mints
// mofus: every joining member starts with StartingMofus and the total in
// circulation only moves between balances and stake pools afterwards.
type Party struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Code          string    `json:"party_code"`
	StartingMofus int64     `json:"starting_mofus"`
	CreatedBy     string    `json:"created_by_display_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// Member is a participant in a party. BalanceMofus is mutated only through
// bet placement (debit) and settlement or its reversal (credit/debit),
// never written directly by callers.
type Member struct {
	ID           string    `json:"id"`
	PartyID      string    `json:"party_id"`
	DisplayName  string    `json:"display_name"`
	IsCreator    bool      `json:"is_creator"`
	BalanceMofus int64     `json:"balance_mofus"`
	CreatedAt    time.Time `json:"created_at"`
}

// BalanceDelta is a single balance mutation instruction emitted by the
// settlement engine. Positive amounts credit the member, negative debit.
type BalanceDelta struct {
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
}
