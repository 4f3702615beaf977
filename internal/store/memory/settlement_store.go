package memory

import (
	"context"
	"sync"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// SettlementStore applies settlement engine output across the in-memory
// stores. A single mutex serializes settlements and reversals; deltas are
// validated in aggregate before anything is applied, so a failing
// settlement leaves every balance untouched.
type SettlementStore struct {
	mu      sync.Mutex
	events  *EventStore
	members *MemberStore
	prices  *PriceHistoryStore
}

// NewSettlementStore creates a SettlementStore coordinating the given
// in-memory stores.
func NewSettlementStore(events *EventStore, members *MemberStore, prices *PriceHistoryStore) *SettlementStore {
	return &SettlementStore{events: events, members: members, prices: prices}
}

// ApplySettlement resolves the event, credits the winners, and appends the
// terminal price points as one unit.
func (s *SettlementStore) ApplySettlement(ctx context.Context, eventID, finalOutcome string, deltas []domain.BalanceDelta, points []domain.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != domain.EventStatusOpen {
		return domain.ErrEventNotOpen
	}

	if err := s.applyDeltas(ctx, deltas); err != nil {
		return err
	}

	s.events.mu.Lock()
	err = s.events.setStatusLocked(eventID, domain.EventStatusResolved, finalOutcome)
	s.events.mu.Unlock()
	if err != nil {
		return err
	}

	s.prices.mu.Lock()
	s.prices.appendLocked(points)
	s.prices.mu.Unlock()
	return nil
}

// ApplyReversal reopens the event, applies the inverse deltas, and drops
// the terminal price points.
func (s *SettlementStore) ApplyReversal(ctx context.Context, eventID string, deltas []domain.BalanceDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != domain.EventStatusResolved {
		return domain.ErrEventNotResolved
	}

	if err := s.applyDeltas(ctx, deltas); err != nil {
		return err
	}

	s.events.mu.Lock()
	err = s.events.setStatusLocked(eventID, domain.EventStatusOpen, "")
	s.events.mu.Unlock()
	if err != nil {
		return err
	}

	s.prices.mu.Lock()
	s.prices.deleteTerminalLocked(eventID)
	s.prices.mu.Unlock()
	return nil
}

// applyDeltas validates the aggregate effect per member and only then
// mutates balances, so no partial application is observable on failure.
func (s *SettlementStore) applyDeltas(ctx context.Context, deltas []domain.BalanceDelta) error {
	totals := make(map[string]int64)
	for _, d := range deltas {
		totals[d.MemberID] += d.Amount
	}
	for memberID, total := range totals {
		m, err := s.members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if m.BalanceMofus+total < 0 {
			return domain.ErrInsufficientBalance
		}
	}

	s.members.mu.Lock()
	defer s.members.mu.Unlock()
	for memberID, total := range totals {
		if err := s.members.adjustLocked(memberID, total); err != nil {
			return err
		}
	}
	return nil
}

var _ domain.SettlementStore = (*SettlementStore)(nil)
