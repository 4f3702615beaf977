package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// BetService defines the methods the bet handler requires from the service
// layer.
type BetService interface {
	PlaceBet(ctx context.Context, eventID, memberID, outcome string, stake int64) (domain.Bet, error)
	ListEventBets(ctx context.Context, eventID string) ([]domain.Bet, error)
	ListPartyBets(ctx context.Context, partyID string, opts domain.ListOpts) ([]domain.Bet, error)
}

// BetHandler serves bet endpoints.
type BetHandler struct {
	bets   BetService
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler with the given service and logger.
func NewBetHandler(bets BetService, logger *slog.Logger) *BetHandler {
	return &BetHandler{
		bets:   bets,
		logger: logHandler(logger, "bet"),
	}
}

type placeBetRequest struct {
	MemberID   string `json:"member_id"`
	Outcome    string `json:"outcome"`
	StakeMofus int64  `json:"stake_mofus"`
}

// PlaceBet stakes mofus on an outcome of an open, unfrozen event.
// POST /api/events/{id}/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	var req placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bet, err := h.bets.PlaceBet(r.Context(), eventID, req.MemberID, req.Outcome, req.StakeMofus)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, bet)
	case errors.Is(err, domain.ErrEventNotOpen):
		writeError(w, http.StatusConflict, "event is resolved")
	case errors.Is(err, domain.ErrMarketFrozen):
		writeError(w, http.StatusConflict, "betting is frozen by an active call")
	case errors.Is(err, domain.ErrUnknownOutcome):
		writeError(w, http.StatusBadRequest, "unknown outcome")
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, "insufficient balance")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "event or member not found")
	default:
		h.logger.ErrorContext(r.Context(), "place bet failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to place bet")
	}
}

// ListEventBets returns an event's bets in placement order.
// GET /api/events/{id}/bets
func (h *BetHandler) ListEventBets(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	bets, err := h.bets.ListEventBets(r.Context(), eventID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list event bets failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list bets")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}

// ListPartyBets returns a party's recent bets for the live feed.
// GET /api/parties/{id}/bets?limit=50&offset=0
func (h *BetHandler) ListPartyBets(w http.ResponseWriter, r *http.Request) {
	partyID := pathParam(r, "id")
	if partyID == "" {
		writeError(w, http.StatusBadRequest, "missing party id")
		return
	}

	opts := parseListOpts(r)
	bets, err := h.bets.ListPartyBets(r.Context(), partyID, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list party bets failed",
			slog.String("party_id", partyID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list bets")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bets":   bets,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}
