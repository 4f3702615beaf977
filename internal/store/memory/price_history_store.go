package memory

import (
	"context"
	"sync"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// PriceHistoryStore is an in-memory implementation of
// domain.PriceHistoryStore. Points keep their append order via a
// monotonically increasing id.
type PriceHistoryStore struct {
	mu     sync.RWMutex
	points []domain.PricePoint
	nextID int64
}

// NewPriceHistoryStore creates an empty in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{nextID: 1}
}

func (s *PriceHistoryStore) Append(_ context.Context, points []domain.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(points)
	return nil
}

// appendLocked adds points; callers must hold mu.
func (s *PriceHistoryStore) appendLocked(points []domain.PricePoint) {
	for _, p := range points {
		p.ID = s.nextID
		s.nextID++
		s.points = append(s.points, p)
	}
}

func (s *PriceHistoryStore) ListByEvent(_ context.Context, eventID string) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PricePoint
	for _, p := range s.points {
		if p.EventID == eventID {
			result = append(result, p)
		}
	}
	return result, nil
}

// DeleteTerminal removes the resolution-time points (price exactly 0 or 1)
// for an event. Intermediate snapshots never contain such prices thanks to
// the smoothing floor, so only the terminal pair is affected.
func (s *PriceHistoryStore) DeleteTerminal(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteTerminalLocked(eventID)
	return nil
}

// deleteTerminalLocked removes terminal points; callers must hold mu.
func (s *PriceHistoryStore) deleteTerminalLocked(eventID string) {
	kept := s.points[:0]
	for _, p := range s.points {
		if p.EventID == eventID && (p.Price == 0 || p.Price == 1) {
			continue
		}
		kept = append(kept, p)
	}
	s.points = kept
}

var _ domain.PriceHistoryStore = (*PriceHistoryStore)(nil)
