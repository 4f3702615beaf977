package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// CallStore is an in-memory implementation of domain.CallStore.
type CallStore struct {
	mu    sync.RWMutex
	calls map[string]domain.Call
}

// NewCallStore creates an empty in-memory call store.
func NewCallStore() *CallStore {
	return &CallStore{calls: make(map[string]domain.Call)}
}

func (s *CallStore) Create(_ context.Context, call domain.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calls[call.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.calls[call.ID] = call
	return nil
}

func (s *CallStore) GetByID(_ context.Context, id string) (domain.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.calls[id]
	if !ok {
		return domain.Call{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *CallStore) ListByEvent(_ context.Context, eventID string) ([]domain.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Call
	for _, c := range s.calls {
		if c.EventID == eventID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// MarkReversed flips the reversed flag; the record itself is kept for the
// audit history.
func (s *CallStore) MarkReversed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Reversed = true
	s.calls[id] = c
	return nil
}

var _ domain.CallStore = (*CallStore)(nil)
