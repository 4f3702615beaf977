// Package service coordinates the stores, caches, and the settlement engine
// behind the HTTP handlers. Services own ID generation and the ordering of
// storage effects; all pricing and settlement math lives in internal/engine.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// codeCharset excludes ambiguous characters (I, O, 0, 1) so join codes can
// be read aloud over voice chat.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength        = 6
	maxCreateAttempts = 10
)

// DefaultStartingMofus is the per-member balance minted when a party does
// not specify its own.
const DefaultStartingMofus int64 = 1000

// PartyService manages parties and their members.
type PartyService struct {
	parties domain.PartyStore
	members domain.MemberStore
	logger  *slog.Logger
}

// NewPartyService creates a PartyService with all required dependencies.
func NewPartyService(parties domain.PartyStore, members domain.MemberStore, logger *slog.Logger) *PartyService {
	return &PartyService{
		parties: parties,
		members: members,
		logger:  logger.With(slog.String("component", "party_service")),
	}
}

// CreateParty creates a party and mints its creator member at the starting
// balance. This mint and the one in JoinParty are the only operations that
// create mofus; every other balance change moves existing units around.
// Slug and join-code collisions are retried with fresh values.
func (s *PartyService) CreateParty(ctx context.Context, name, creatorDisplayName string, startingMofus int64) (domain.Party, domain.Member, error) {
	name = strings.TrimSpace(name)
	creatorDisplayName = strings.TrimSpace(creatorDisplayName)
	if name == "" {
		return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: party name is required")
	}
	if creatorDisplayName == "" {
		return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: creator display name is required")
	}
	if startingMofus <= 0 {
		startingMofus = DefaultStartingMofus
	}

	now := time.Now().UTC()
	var party domain.Party
	created := false
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		party = domain.Party{
			ID:            uuid.NewString(),
			Slug:          slugify(name, attempt),
			Name:          name,
			Code:          generateCode(),
			StartingMofus: startingMofus,
			CreatedBy:     creatorDisplayName,
			CreatedAt:     now,
		}
		err := s.parties.Create(ctx, party)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: create party: %w", err)
		}
	}
	if !created {
		return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: create party: exhausted %d slug/code attempts", maxCreateAttempts)
	}

	creator := domain.Member{
		ID:           uuid.NewString(),
		PartyID:      party.ID,
		DisplayName:  creatorDisplayName,
		IsCreator:    true,
		BalanceMofus: startingMofus,
		CreatedAt:    now,
	}
	if err := s.members.Create(ctx, creator); err != nil {
		return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: create creator member: %w", err)
	}

	s.logger.InfoContext(ctx, "party created",
		slog.String("party_id", party.ID),
		slog.String("slug", party.Slug),
		slog.Int64("starting_mofus", startingMofus),
	)
	return party, creator, nil
}

// JoinParty adds a member to the party behind the given join code, minting
// the party's starting balance for them. Joining is idempotent on display
// name: rejoining under a name that already exists returns the existing
// member untouched, so a refreshed browser never mints twice.
func (s *PartyService) JoinParty(ctx context.Context, code, displayName string) (domain.Party, domain.Member, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: display name is required")
	}

	party, err := s.parties.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: join party: %w", err)
	}

	existing, err := s.members.GetByDisplayName(ctx, party.ID, displayName)
	if err == nil {
		return party, existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: look up member: %w", err)
	}

	member := domain.Member{
		ID:           uuid.NewString(),
		PartyID:      party.ID,
		DisplayName:  displayName,
		BalanceMofus: party.StartingMofus,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.members.Create(ctx, member); err != nil {
		// Lost a race with another join under the same name.
		if errors.Is(err, domain.ErrAlreadyExists) {
			existing, lookupErr := s.members.GetByDisplayName(ctx, party.ID, displayName)
			if lookupErr == nil {
				return party, existing, nil
			}
		}
		return domain.Party{}, domain.Member{}, fmt.Errorf("party_service: join party: %w", err)
	}

	s.logger.InfoContext(ctx, "member joined",
		slog.String("party_id", party.ID),
		slog.String("member_id", member.ID),
	)
	return party, member, nil
}

// GetParty fetches a party by ID.
func (s *PartyService) GetParty(ctx context.Context, id string) (domain.Party, error) {
	party, err := s.parties.GetByID(ctx, id)
	if err != nil {
		return domain.Party{}, fmt.Errorf("party_service: get party %s: %w", id, err)
	}
	return party, nil
}

// GetPartyBySlug fetches a party by its URL slug.
func (s *PartyService) GetPartyBySlug(ctx context.Context, slug string) (domain.Party, error) {
	party, err := s.parties.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Party{}, fmt.Errorf("party_service: get party by slug %q: %w", slug, err)
	}
	return party, nil
}

// ListMembers returns all members of a party.
func (s *PartyService) ListMembers(ctx context.Context, partyID string) ([]domain.Member, error) {
	members, err := s.members.ListByParty(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("party_service: list members: %w", err)
	}
	return members, nil
}

// KickMember removes a member from a party. Only the party creator may
// kick, and the creator can never be kicked (which also rules out kicking
// themselves). The kicked member's balance disappears with them.
func (s *PartyService) KickMember(ctx context.Context, partyID, requesterID, targetID string) error {
	requester, err := s.members.GetByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("party_service: get requester: %w", err)
	}
	if requester.PartyID != partyID || !requester.IsCreator {
		return domain.ErrNotCreator
	}

	target, err := s.members.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("party_service: get kick target: %w", err)
	}
	if target.PartyID != partyID {
		return domain.ErrNotFound
	}
	if target.IsCreator {
		return fmt.Errorf("party_service: the party creator cannot be kicked")
	}

	if err := s.members.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("party_service: kick member %s: %w", targetID, err)
	}

	s.logger.InfoContext(ctx, "member kicked",
		slog.String("party_id", partyID),
		slog.String("member_id", targetID),
	)
	return nil
}

// slugify lowercases the name and collapses every non-alphanumeric run into
// a single hyphen. Retries after a collision append a short random suffix.
func slugify(name string, attempt int) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "party"
	}
	if attempt > 0 {
		slug += "-" + strings.ToLower(randomCode(4))
	}
	return slug
}

// generateCode returns a fresh join code. Uniqueness is enforced by the
// store; CreateParty retries on collision.
func generateCode() string {
	return randomCode(codeLength)
}

func randomCode(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; uuid entropy is
		// an acceptable stand-in if it somehow does.
		copy(buf, uuid.NewString())
	}
	for i := range buf {
		buf[i] = codeCharset[int(buf[i])%len(codeCharset)]
	}
	return string(buf)
}
