package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// PartyStore persists parties.
type PartyStore interface {
	Create(ctx context.Context, party Party) error
	GetByID(ctx context.Context, id string) (Party, error)
	GetBySlug(ctx context.Context, slug string) (Party, error)
	GetByCode(ctx context.Context, code string) (Party, error)
}

// MemberStore persists party members and their balances. AdjustBalance is
// the only way a balance changes outside of settlement: it must be an
// atomic read-modify-write that fails with ErrInsufficientBalance rather
// than letting a balance go negative.
type MemberStore interface {
	Create(ctx context.Context, member Member) error
	GetByID(ctx context.Context, id string) (Member, error)
	GetByDisplayName(ctx context.Context, partyID, displayName string) (Member, error)
	ListByParty(ctx context.Context, partyID string) ([]Member, error)
	AdjustBalance(ctx context.Context, memberID string, delta int64) error
	Delete(ctx context.Context, id string) error
}

// EventStore persists events and their outcome sets. Outcomes are created
// together with the event and are immutable afterwards.
type EventStore interface {
	Create(ctx context.Context, event Event, outcomes []Outcome) error
	GetByID(ctx context.Context, id string) (Event, error)
	ListByParty(ctx context.Context, partyID string) ([]Event, error)
	ListOutcomes(ctx context.Context, eventID string) ([]Outcome, error)
	UpdateTitle(ctx context.Context, id, title string) error
}

// BetStore persists bets. ListByEvent returns bets in placement order
// (creation time ascending), the order the settlement engine relies on for
// deterministic payout distribution.
type BetStore interface {
	Create(ctx context.Context, bet Bet) error
	ListByEvent(ctx context.Context, eventID string) ([]Bet, error)
	ListByParty(ctx context.Context, partyID string, opts ListOpts) ([]Bet, error)
}

// CallStore persists event calls.
type CallStore interface {
	Create(ctx context.Context, call Call) error
	GetByID(ctx context.Context, id string) (Call, error)
	ListByEvent(ctx context.Context, eventID string) ([]Call, error)
	MarkReversed(ctx context.Context, id string) error
}

// PriceHistoryStore is the append-only sink for price snapshots.
// DeleteTerminal removes exactly the resolution-time points (price 0 or 1)
// for an event; it is invoked only when a confirmation is reversed.
type PriceHistoryStore interface {
	Append(ctx context.Context, points []PricePoint) error
	ListByEvent(ctx context.Context, eventID string) ([]PricePoint, error)
	DeleteTerminal(ctx context.Context, eventID string) error
}

// SettlementStore applies the output of the settlement engine. Each method
// must commit as a single all-or-nothing unit: the event status change,
// every balance delta, and the price history mutation either all happen or
// none do. A delta that would drive a balance negative fails the whole
// application with ErrInsufficientBalance.
type SettlementStore interface {
	// ApplySettlement resolves the event to finalOutcome, applies deltas,
	// and appends the terminal price points.
	ApplySettlement(ctx context.Context, eventID, finalOutcome string, deltas []BalanceDelta, points []PricePoint) error
	// ApplyReversal reopens the event, applies the inverse deltas, and
	// deletes the terminal price points written at resolution time.
	ApplyReversal(ctx context.Context, eventID string, deltas []BalanceDelta) error
}

// PriceCache caches the latest per-outcome prices for an event so the grid
// view never recomputes a pool just to display it. Stale reads are
// acceptable; the price actually charged to a bettor always comes from the
// pool state inside the placing transaction.
type PriceCache interface {
	SetPrices(ctx context.Context, eventID string, prices map[string]float64, ts time.Time) error
	GetPrices(ctx context.Context, eventID string) (map[string]float64, error)
	Invalidate(ctx context.Context, eventID string) error
}

// SignalBus is a lightweight pub/sub fan-out used to push live updates
// (price snapshots, bets, calls, resolutions) to WebSocket clients.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter limits request rates per key over a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
