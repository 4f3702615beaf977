package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// EventStore is an in-memory implementation of domain.EventStore. The
// resolution state transitions live on the settlement store, which reaches
// into this store under its own locking.
type EventStore struct {
	mu       sync.RWMutex
	events   map[string]domain.Event
	outcomes map[string][]domain.Outcome // keyed by event id
}

// NewEventStore creates an empty in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events:   make(map[string]domain.Event),
		outcomes: make(map[string][]domain.Outcome),
	}
}

func (s *EventStore) Create(_ context.Context, event domain.Event, outcomes []domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.events[event.ID] = event
	s.outcomes[event.ID] = append([]domain.Outcome(nil), outcomes...)
	return nil
}

func (s *EventStore) GetByID(_ context.Context, id string) (domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return e, nil
}

func (s *EventStore) ListByParty(_ context.Context, partyID string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Event
	for _, e := range s.events {
		if e.PartyID == partyID {
			result = append(result, e)
		}
	}
	// Newest first, matching the event grid.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *EventStore) ListOutcomes(_ context.Context, eventID string) ([]domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcomes, ok := s.outcomes[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	result := append([]domain.Outcome(nil), outcomes...)
	sort.Slice(result, func(i, j int) bool {
		return result[i].DisplayOrder < result[j].DisplayOrder
	})
	return result, nil
}

func (s *EventStore) UpdateTitle(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Title = title
	s.events[id] = e
	return nil
}

// setStatusLocked flips the resolution state; callers must hold mu.
func (s *EventStore) setStatusLocked(id string, status domain.EventStatus, finalOutcome string) error {
	e, ok := s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	e.FinalOutcome = finalOutcome
	s.events[id] = e
	return nil
}

var _ domain.EventStore = (*EventStore)(nil)
