package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mofulabs/mofumarket/internal/domain"
	"github.com/mofulabs/mofumarket/internal/engine"
)

// Notifier pushes human-readable alerts to external channels. Satisfied by
// *notify.Notifier; a nil Notifier disables alerts.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// ResolutionService manages the call lifecycle and outcome settlement. All
// settlement math happens in the engine; this service snapshots state,
// hands it to the engine, and commits the resulting deltas through the
// settlement store as one unit.
type ResolutionService struct {
	events     domain.EventStore
	bets       domain.BetStore
	members    domain.MemberStore
	calls      domain.CallStore
	prices     domain.PriceHistoryStore
	settlement domain.SettlementStore
	cache      domain.PriceCache
	bus        domain.SignalBus
	notifier   Notifier
	logger     *slog.Logger
}

// NewResolutionService creates a ResolutionService with all required
// dependencies. notifier may be nil.
func NewResolutionService(
	events domain.EventStore,
	bets domain.BetStore,
	members domain.MemberStore,
	calls domain.CallStore,
	prices domain.PriceHistoryStore,
	settlement domain.SettlementStore,
	cache domain.PriceCache,
	bus domain.SignalBus,
	notifier Notifier,
	logger *slog.Logger,
) *ResolutionService {
	return &ResolutionService{
		events:     events,
		bets:       bets,
		members:    members,
		calls:      calls,
		prices:     prices,
		settlement: settlement,
		cache:      cache,
		bus:        bus,
		notifier:   notifier,
		logger:     logger.With(slog.String("component", "resolution_service")),
	}
}

// CallEvent proposes an outcome for an open event. Any party member may
// call; the call freezes betting until it is reversed or the event is
// settled. Calls accumulate, history is never rewritten.
func (s *ResolutionService) CallEvent(ctx context.Context, eventID, memberID, proposedOutcome, justification string) (domain.Call, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.Call{}, fmt.Errorf("resolution_service: get event %s: %w", eventID, err)
	}
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return domain.Call{}, fmt.Errorf("resolution_service: get member %s: %w", memberID, err)
	}
	if member.PartyID != event.PartyID {
		return domain.Call{}, domain.ErrNotFound
	}

	outcomes, err := s.events.ListOutcomes(ctx, eventID)
	if err != nil {
		return domain.Call{}, fmt.Errorf("resolution_service: list outcomes: %w", err)
	}
	if err := engine.ValidateCall(event, outcomes, proposedOutcome); err != nil {
		return domain.Call{}, err
	}

	call := domain.Call{
		ID:              uuid.NewString(),
		EventID:         eventID,
		MemberID:        memberID,
		ProposedOutcome: proposedOutcome,
		Justification:   strings.TrimSpace(justification),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.calls.Create(ctx, call); err != nil {
		return domain.Call{}, fmt.Errorf("resolution_service: create call: %w", err)
	}

	s.logger.InfoContext(ctx, "event called",
		slog.String("event_id", eventID),
		slog.String("member_id", memberID),
		slog.String("proposed_outcome", proposedOutcome),
	)
	s.publish(ctx, "calls", map[string]any{
		"event":            "event_called",
		"event_id":         eventID,
		"call_id":          call.ID,
		"proposed_outcome": proposedOutcome,
	})
	s.notify(ctx, "event_called",
		fmt.Sprintf("Called: %s", event.Title),
		fmt.Sprintf("%s called %q on %q. Betting is frozen.", member.DisplayName, proposedOutcome, event.Title))

	return call, nil
}

// ReverseCall retracts a call, re-enabling betting if no other active call
// remains. Only the caller or the party creator may retract, and a call is
// only ever reversed once. No balances move.
func (s *ResolutionService) ReverseCall(ctx context.Context, callID, requesterID string) error {
	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return fmt.Errorf("resolution_service: get call %s: %w", callID, err)
	}
	event, err := s.events.GetByID(ctx, call.EventID)
	if err != nil {
		return fmt.Errorf("resolution_service: get event %s: %w", call.EventID, err)
	}
	if err := engine.ValidateReverseCall(event, call); err != nil {
		return err
	}

	if requesterID != call.MemberID {
		if err := requireCreator(ctx, s.members, event.PartyID, requesterID); err != nil {
			return err
		}
	}

	if err := s.calls.MarkReversed(ctx, callID); err != nil {
		return fmt.Errorf("resolution_service: mark call reversed: %w", err)
	}

	s.logger.InfoContext(ctx, "call reversed",
		slog.String("event_id", call.EventID),
		slog.String("call_id", callID),
	)
	s.publish(ctx, "calls", map[string]any{
		"event":    "call_reversed",
		"event_id": call.EventID,
		"call_id":  callID,
	})
	return nil
}

// ConfirmOutcome settles an open event on the given outcome: winners split
// the losing pool in proportion to stake, the event resolves, and terminal
// prices are recorded. Creator only. The confirmed outcome does not have to
// match any call; the creator has the final word.
func (s *ResolutionService) ConfirmOutcome(ctx context.Context, eventID, requesterID, outcome string) (engine.Settlement, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return engine.Settlement{}, fmt.Errorf("resolution_service: get event %s: %w", eventID, err)
	}
	if err := requireCreator(ctx, s.members, event.PartyID, requesterID); err != nil {
		return engine.Settlement{}, err
	}

	outcomes, err := s.events.ListOutcomes(ctx, eventID)
	if err != nil {
		return engine.Settlement{}, fmt.Errorf("resolution_service: list outcomes: %w", err)
	}
	bets, err := s.bets.ListByEvent(ctx, eventID)
	if err != nil {
		return engine.Settlement{}, fmt.Errorf("resolution_service: list bets: %w", err)
	}

	settlement, err := engine.Confirm(event, outcomes, bets, outcome, time.Now().UTC())
	if err != nil {
		return engine.Settlement{}, err
	}

	if err := s.settlement.ApplySettlement(ctx, eventID, outcome, settlement.Deltas, settlement.PricePoints); err != nil {
		return engine.Settlement{}, fmt.Errorf("resolution_service: apply settlement: %w", err)
	}

	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		s.logger.WarnContext(ctx, "price cache invalidate failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "event resolved",
		slog.String("event_id", eventID),
		slog.String("outcome", outcome),
		slog.Int64("winning_stake", settlement.TotalWinningStake),
		slog.Int64("losing_stake", settlement.TotalLosingStake),
		slog.Int("winners", len(settlement.Payouts)),
	)
	s.publish(ctx, "resolutions", map[string]any{
		"event":         "event_resolved",
		"event_id":      eventID,
		"outcome":       outcome,
		"winning_stake": settlement.TotalWinningStake,
		"losing_stake":  settlement.TotalLosingStake,
	})
	s.notify(ctx, "event_resolved",
		fmt.Sprintf("Resolved: %s", event.Title),
		fmt.Sprintf("%q resolved to %q. %d winner(s) split a pool of %d mofus.",
			event.Title, outcome, len(settlement.Payouts),
			settlement.TotalWinningStake+settlement.TotalLosingStake))

	return settlement, nil
}

// ReverseOutcome undoes a confirmation exactly: winners give back their
// payouts, losers get their stakes back, the event reopens, and the
// terminal price points vanish. Creator only. Payouts are recomputed from
// the same bet snapshot, which cannot have drifted because betting is
// blocked on resolved events.
func (s *ResolutionService) ReverseOutcome(ctx context.Context, eventID, requesterID string) (engine.Reversal, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return engine.Reversal{}, fmt.Errorf("resolution_service: get event %s: %w", eventID, err)
	}
	if err := requireCreator(ctx, s.members, event.PartyID, requesterID); err != nil {
		return engine.Reversal{}, err
	}

	bets, err := s.bets.ListByEvent(ctx, eventID)
	if err != nil {
		return engine.Reversal{}, fmt.Errorf("resolution_service: list bets: %w", err)
	}

	reversal, err := engine.Reverse(event, bets)
	if err != nil {
		return engine.Reversal{}, err
	}

	if err := s.settlement.ApplyReversal(ctx, eventID, reversal.Deltas); err != nil {
		return engine.Reversal{}, fmt.Errorf("resolution_service: apply reversal: %w", err)
	}

	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		s.logger.WarnContext(ctx, "price cache invalidate failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "resolution reversed",
		slog.String("event_id", eventID),
		slog.String("outcome", reversal.Outcome),
	)
	s.publish(ctx, "resolutions", map[string]any{
		"event":    "resolution_reversed",
		"event_id": eventID,
		"outcome":  reversal.Outcome,
	})
	s.notify(ctx, "resolution_reversed",
		fmt.Sprintf("Reversed: %s", event.Title),
		fmt.Sprintf("The resolution of %q to %q was reversed. Balances are restored and betting is open again.",
			event.Title, reversal.Outcome))

	return reversal, nil
}

// ListCalls returns an event's calls, newest first.
func (s *ResolutionService) ListCalls(ctx context.Context, eventID string) ([]domain.Call, error) {
	calls, err := s.calls.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("resolution_service: list calls: %w", err)
	}
	return calls, nil
}

func (s *ResolutionService) publish(ctx context.Context, channel string, payload map[string]any) {
	data, _ := json.Marshal(payload)
	if err := s.bus.Publish(ctx, channel, data); err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ResolutionService) notify(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.WarnContext(ctx, "notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
