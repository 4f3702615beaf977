// Package memory implements the domain store interfaces with mutex-guarded
// in-memory maps. It backs the service tests and the dependency-free
// "memory" run mode used for local play.
package memory

import (
	"context"
	"sync"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// PartyStore is an in-memory implementation of domain.PartyStore.
type PartyStore struct {
	mu      sync.RWMutex
	parties map[string]domain.Party
}

// NewPartyStore creates an empty in-memory party store.
func NewPartyStore() *PartyStore {
	return &PartyStore{parties: make(map[string]domain.Party)}
}

// Create inserts a party, failing when the id, slug, or join code is taken.
func (s *PartyStore) Create(_ context.Context, party domain.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.parties[party.ID]; exists {
		return domain.ErrAlreadyExists
	}
	for _, p := range s.parties {
		if p.Slug == party.Slug || p.Code == party.Code {
			return domain.ErrAlreadyExists
		}
	}
	s.parties[party.ID] = party
	return nil
}

func (s *PartyStore) GetByID(_ context.Context, id string) (domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parties[id]
	if !ok {
		return domain.Party{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *PartyStore) GetBySlug(_ context.Context, slug string) (domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.parties {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Party{}, domain.ErrNotFound
}

func (s *PartyStore) GetByCode(_ context.Context, code string) (domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.parties {
		if p.Code == code {
			return p, nil
		}
	}
	return domain.Party{}, domain.ErrNotFound
}

var _ domain.PartyStore = (*PartyStore)(nil)
