package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// MemberStore is an in-memory implementation of domain.MemberStore.
type MemberStore struct {
	mu      sync.RWMutex
	members map[string]domain.Member
}

// NewMemberStore creates an empty in-memory member store.
func NewMemberStore() *MemberStore {
	return &MemberStore{members: make(map[string]domain.Member)}
}

func (s *MemberStore) Create(_ context.Context, member domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[member.ID]; exists {
		return domain.ErrAlreadyExists
	}
	for _, m := range s.members {
		if m.PartyID == member.PartyID && m.DisplayName == member.DisplayName {
			return domain.ErrAlreadyExists
		}
	}
	s.members[member.ID] = member
	return nil
}

func (s *MemberStore) GetByID(_ context.Context, id string) (domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return domain.Member{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *MemberStore) GetByDisplayName(_ context.Context, partyID, displayName string) (domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.PartyID == partyID && m.DisplayName == displayName {
			return m, nil
		}
	}
	return domain.Member{}, domain.ErrNotFound
}

func (s *MemberStore) ListByParty(_ context.Context, partyID string) ([]domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Member
	for _, m := range s.members {
		if m.PartyID == partyID {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// AdjustBalance applies a delta under the write lock, so the read-modify-
// write cannot race with a concurrent adjustment. A delta that would drive
// the balance negative is rejected without mutating anything.
func (s *MemberStore) AdjustBalance(_ context.Context, memberID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.adjustLocked(memberID, delta)
}

// adjustLocked mutates a balance; callers must hold mu.
func (s *MemberStore) adjustLocked(memberID string, delta int64) error {
	m, ok := s.members[memberID]
	if !ok {
		return domain.ErrNotFound
	}
	if m.BalanceMofus+delta < 0 {
		return domain.ErrInsufficientBalance
	}
	m.BalanceMofus += delta
	s.members[memberID] = m
	return nil
}

func (s *MemberStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.members, id)
	return nil
}

var _ domain.MemberStore = (*MemberStore)(nil)
