package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// BetStore is an in-memory implementation of domain.BetStore. It resolves
// events to parties through the event store, standing in for the join the
// SQL implementation uses.
type BetStore struct {
	mu     sync.RWMutex
	bets   map[string]domain.Bet
	events *EventStore
}

// NewBetStore creates an empty in-memory bet store backed by the given
// event store.
func NewBetStore(events *EventStore) *BetStore {
	return &BetStore{
		bets:   make(map[string]domain.Bet),
		events: events,
	}
}

func (s *BetStore) Create(_ context.Context, bet domain.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bets[bet.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.bets[bet.ID] = bet
	return nil
}

// ListByEvent returns the event's bets in placement order.
func (s *BetStore) ListByEvent(_ context.Context, eventID string) ([]domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bet
	for _, b := range s.bets {
		if b.EventID == eventID {
			result = append(result, b)
		}
	}
	sortByPlacement(result)
	return result, nil
}

func (s *BetStore) ListByParty(ctx context.Context, partyID string, opts domain.ListOpts) ([]domain.Bet, error) {
	events, err := s.events.ListByParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	inParty := make(map[string]bool, len(events))
	for _, e := range events {
		inParty[e.ID] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bet
	for _, b := range s.bets {
		if inParty[b.EventID] {
			result = append(result, b)
		}
	}
	// Newest first for the party bet feed.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func sortByPlacement(bets []domain.Bet) {
	sort.Slice(bets, func(i, j int) bool {
		if bets[i].CreatedAt.Equal(bets[j].CreatedAt) {
			return bets[i].ID < bets[j].ID
		}
		return bets[i].CreatedAt.Before(bets[j].CreatedAt)
	})
}

var _ domain.BetStore = (*BetStore)(nil)
