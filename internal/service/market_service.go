package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mofulabs/mofumarket/internal/domain"
	"github.com/mofulabs/mofumarket/internal/engine"
)

// defaultOutcomes is the outcome set used when an event is created without
// an explicit one, matching the classic yes/no market.
var defaultOutcomes = []struct {
	Name  string
	Color string
}{
	{"yes", "#22c55e"},
	{"no", "#ef4444"},
}

// outcomePalette colors explicit outcome sets in display order.
var outcomePalette = []string{
	"#22c55e", "#ef4444", "#3b82f6", "#eab308", "#a855f7", "#14b8a6",
}

// EventView bundles an event with everything the grid needs to render it.
type EventView struct {
	Event    domain.Event       `json:"event"`
	Outcomes []domain.Outcome   `json:"outcomes"`
	Prices   map[string]float64 `json:"prices"`
	Frozen   bool               `json:"frozen"`
}

// MarketService manages events and bet placement.
type MarketService struct {
	events  domain.EventStore
	bets    domain.BetStore
	members domain.MemberStore
	calls   domain.CallStore
	prices  domain.PriceHistoryStore
	cache   domain.PriceCache
	bus     domain.SignalBus
	logger  *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	events domain.EventStore,
	bets domain.BetStore,
	members domain.MemberStore,
	calls domain.CallStore,
	prices domain.PriceHistoryStore,
	cache domain.PriceCache,
	bus domain.SignalBus,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		events:  events,
		bets:    bets,
		members: members,
		calls:   calls,
		prices:  prices,
		cache:   cache,
		bus:     bus,
		logger:  logger.With(slog.String("component", "market_service")),
	}
}

// CreateEvent creates an open event with its outcome set and writes the
// initial equiprobable price snapshot. Only the party creator may create
// events. An empty outcomeNames gets the default yes/no pair.
func (s *MarketService) CreateEvent(ctx context.Context, partyID, requesterID, title, description string, outcomeNames []string) (EventView, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return EventView{}, fmt.Errorf("market_service: event title is required")
	}
	if err := requireCreator(ctx, s.members, partyID, requesterID); err != nil {
		return EventView{}, err
	}

	now := time.Now().UTC()
	event := domain.Event{
		ID:          uuid.NewString(),
		PartyID:     partyID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      domain.EventStatusOpen,
		CreatedAt:   now,
	}

	outcomes, err := buildOutcomes(event.ID, outcomeNames, now)
	if err != nil {
		return EventView{}, err
	}

	if err := s.events.Create(ctx, event, outcomes); err != nil {
		return EventView{}, fmt.Errorf("market_service: create event: %w", err)
	}

	prices, err := s.snapshotPrices(ctx, event.ID, domain.StakePool(outcomes, nil), now)
	if err != nil {
		return EventView{}, err
	}

	s.logger.InfoContext(ctx, "event created",
		slog.String("event_id", event.ID),
		slog.String("party_id", partyID),
		slog.Int("outcomes", len(outcomes)),
	)
	return EventView{Event: event, Outcomes: outcomes, Prices: prices}, nil
}

func buildOutcomes(eventID string, names []string, at time.Time) ([]domain.Outcome, error) {
	if len(names) == 0 {
		outcomes := make([]domain.Outcome, len(defaultOutcomes))
		for i, d := range defaultOutcomes {
			outcomes[i] = domain.Outcome{
				EventID:      eventID,
				Name:         d.Name,
				Color:        d.Color,
				DisplayOrder: i,
				CreatedAt:    at,
			}
		}
		return outcomes, nil
	}

	seen := make(map[string]bool, len(names))
	outcomes := make([]domain.Outcome, 0, len(names))
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("market_service: outcome name must not be empty")
		}
		if seen[name] {
			return nil, fmt.Errorf("market_service: duplicate outcome %q", name)
		}
		seen[name] = true
		outcomes = append(outcomes, domain.Outcome{
			EventID:      eventID,
			Name:         name,
			Color:        outcomePalette[i%len(outcomePalette)],
			DisplayOrder: i,
			CreatedAt:    at,
		})
	}
	return outcomes, nil
}

// GetEvent returns the full view of an event: outcomes, current prices, and
// whether betting is frozen by an active call. Prices come from the cache
// when present; a miss recomputes from the stake pool and backfills it.
func (s *MarketService) GetEvent(ctx context.Context, eventID string) (EventView, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return EventView{}, fmt.Errorf("market_service: get event %s: %w", eventID, err)
	}
	outcomes, err := s.events.ListOutcomes(ctx, eventID)
	if err != nil {
		return EventView{}, fmt.Errorf("market_service: list outcomes: %w", err)
	}
	calls, err := s.calls.ListByEvent(ctx, eventID)
	if err != nil {
		return EventView{}, fmt.Errorf("market_service: list calls: %w", err)
	}

	prices, err := s.currentPrices(ctx, event, outcomes)
	if err != nil {
		return EventView{}, err
	}

	return EventView{
		Event:    event,
		Outcomes: outcomes,
		Prices:   prices,
		Frozen:   event.Status == domain.EventStatusOpen && engine.Frozen(calls),
	}, nil
}

// ListEvents returns a party's events, newest first.
func (s *MarketService) ListEvents(ctx context.Context, partyID string) ([]domain.Event, error) {
	events, err := s.events.ListByParty(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("market_service: list events: %w", err)
	}
	return events, nil
}

// UpdateTitle renames an event. Creator only; resolution state does not
// matter, a typo can be fixed at any time.
func (s *MarketService) UpdateTitle(ctx context.Context, eventID, requesterID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("market_service: event title is required")
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("market_service: get event %s: %w", eventID, err)
	}
	if err := requireCreator(ctx, s.members, event.PartyID, requesterID); err != nil {
		return err
	}
	if err := s.events.UpdateTitle(ctx, eventID, title); err != nil {
		return fmt.Errorf("market_service: update title: %w", err)
	}
	return nil
}

// PlaceBet stakes mofus on an outcome. The price recorded on the bet is the
// one in force before the stake lands; the snapshot written afterwards
// already includes it. The debit is atomic, so two rapid bets can never
// spend the same balance twice, and a failed insert refunds the stake.
func (s *MarketService) PlaceBet(ctx context.Context, eventID, memberID, outcome string, stake int64) (domain.Bet, error) {
	if stake <= 0 {
		return domain.Bet{}, fmt.Errorf("market_service: stake must be positive")
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("market_service: get event %s: %w", eventID, err)
	}
	if event.Status != domain.EventStatusOpen {
		return domain.Bet{}, domain.ErrEventNotOpen
	}

	calls, err := s.calls.ListByEvent(ctx, eventID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("market_service: list calls: %w", err)
	}
	if engine.Frozen(calls) {
		return domain.Bet{}, domain.ErrMarketFrozen
	}

	outcomes, err := s.events.ListOutcomes(ctx, eventID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("market_service: list outcomes: %w", err)
	}

	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("market_service: get member %s: %w", memberID, err)
	}
	if member.PartyID != event.PartyID {
		return domain.Bet{}, domain.ErrNotFound
	}

	bets, err := s.bets.ListByEvent(ctx, eventID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("market_service: list bets: %w", err)
	}

	pool := domain.StakePool(outcomes, bets)
	priceNow, err := engine.Price(pool)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("market_service: price pool: %w", err)
	}
	priceAtBet, ok := priceNow[outcome]
	if !ok {
		return domain.Bet{}, domain.ErrUnknownOutcome
	}

	if err := s.members.AdjustBalance(ctx, memberID, -stake); err != nil {
		return domain.Bet{}, fmt.Errorf("market_service: debit stake: %w", err)
	}

	now := time.Now().UTC()
	bet := domain.Bet{
		ID:         uuid.NewString(),
		EventID:    eventID,
		MemberID:   memberID,
		Outcome:    outcome,
		StakeMofus: stake,
		PriceAtBet: priceAtBet,
		CreatedAt:  now,
	}
	if err := s.bets.Create(ctx, bet); err != nil {
		if refundErr := s.members.AdjustBalance(ctx, memberID, stake); refundErr != nil {
			s.logger.ErrorContext(ctx, "refund after failed bet insert failed",
				slog.String("member_id", memberID),
				slog.Int64("stake", stake),
				slog.String("error", refundErr.Error()),
			)
		}
		return domain.Bet{}, fmt.Errorf("market_service: create bet: %w", err)
	}

	pool[outcome] += stake
	if _, err := s.snapshotPrices(ctx, eventID, pool, now); err != nil {
		// The bet stands; the next stake-affecting operation resnapshots.
		s.logger.WarnContext(ctx, "price snapshot after bet failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
	}

	s.publish(ctx, "bets", map[string]any{
		"event":       "bet_placed",
		"event_id":    eventID,
		"member_id":   memberID,
		"outcome":     outcome,
		"stake_mofus": stake,
		"price":       priceAtBet,
		"timestamp":   now.Format(time.RFC3339Nano),
	})

	return bet, nil
}

// ListEventBets returns an event's bets in placement order.
func (s *MarketService) ListEventBets(ctx context.Context, eventID string) ([]domain.Bet, error) {
	bets, err := s.bets.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("market_service: list event bets: %w", err)
	}
	return bets, nil
}

// ListPartyBets returns a party's recent bets across all events, newest
// first, for the live feed.
func (s *MarketService) ListPartyBets(ctx context.Context, partyID string, opts domain.ListOpts) ([]domain.Bet, error) {
	bets, err := s.bets.ListByParty(ctx, partyID, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list party bets: %w", err)
	}
	return bets, nil
}

// PriceHistory returns the full price series for an event, oldest first.
func (s *MarketService) PriceHistory(ctx context.Context, eventID string) ([]domain.PricePoint, error) {
	points, err := s.prices.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("market_service: price history: %w", err)
	}
	return points, nil
}

// currentPrices resolves display prices for an event. Resolved events show
// the terminal 1/0 prices; open events read the cache and fall back to
// recomputing from the stake pool.
func (s *MarketService) currentPrices(ctx context.Context, event domain.Event, outcomes []domain.Outcome) (map[string]float64, error) {
	if event.Status == domain.EventStatusResolved {
		prices := make(map[string]float64, len(outcomes))
		for _, o := range outcomes {
			if o.Name == event.FinalOutcome {
				prices[o.Name] = 1
			} else {
				prices[o.Name] = 0
			}
		}
		return prices, nil
	}

	if cached, err := s.cache.GetPrices(ctx, event.ID); err == nil && len(cached) == len(outcomes) {
		return cached, nil
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "price cache read failed",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
	}

	bets, err := s.bets.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("market_service: list bets: %w", err)
	}
	prices, err := engine.Price(domain.StakePool(outcomes, bets))
	if err != nil {
		return nil, fmt.Errorf("market_service: price pool: %w", err)
	}
	if err := s.cache.SetPrices(ctx, event.ID, prices, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "price cache backfill failed",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
	}
	return prices, nil
}

// snapshotPrices prices the pool, appends the snapshot to the history,
// refreshes the cache, and fans the prices out on the bus.
func (s *MarketService) snapshotPrices(ctx context.Context, eventID string, pool map[string]int64, at time.Time) (map[string]float64, error) {
	points, err := engine.Snapshot(eventID, pool, at)
	if err != nil {
		return nil, fmt.Errorf("market_service: snapshot prices: %w", err)
	}
	if err := s.prices.Append(ctx, points); err != nil {
		return nil, fmt.Errorf("market_service: append price snapshot: %w", err)
	}

	prices := make(map[string]float64, len(points))
	for _, p := range points {
		prices[p.Outcome] = p.Price
	}
	if err := s.cache.SetPrices(ctx, eventID, prices, at); err != nil {
		s.logger.WarnContext(ctx, "price cache update failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
	}

	s.publish(ctx, "prices", map[string]any{
		"event":     "price_snapshot",
		"event_id":  eventID,
		"prices":    prices,
		"timestamp": at.Format(time.RFC3339Nano),
	})
	return prices, nil
}

// publish fans an event out on the signal bus. Fan-out is best effort and
// never fails the operation that produced it.
func (s *MarketService) publish(ctx context.Context, channel string, payload map[string]any) {
	data, _ := json.Marshal(payload)
	if err := s.bus.Publish(ctx, channel, data); err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

// requireCreator checks that memberID is the creator of partyID.
func requireCreator(ctx context.Context, members domain.MemberStore, partyID, memberID string) error {
	member, err := members.GetByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("service: get member %s: %w", memberID, err)
	}
	if member.PartyID != partyID || !member.IsCreator {
		return domain.ErrNotCreator
	}
	return nil
}
