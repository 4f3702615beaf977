package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mofulabs/mofumarket/internal/domain"
	"github.com/mofulabs/mofumarket/internal/engine"
)

// ResolutionService defines the methods the call handler requires from the
// service layer.
type ResolutionService interface {
	CallEvent(ctx context.Context, eventID, memberID, proposedOutcome, justification string) (domain.Call, error)
	ReverseCall(ctx context.Context, callID, requesterID string) error
	ConfirmOutcome(ctx context.Context, eventID, requesterID, outcome string) (engine.Settlement, error)
	ReverseOutcome(ctx context.Context, eventID, requesterID string) (engine.Reversal, error)
	ListCalls(ctx context.Context, eventID string) ([]domain.Call, error)
}

// CallHandler serves the call and resolution endpoints.
type CallHandler struct {
	resolutions ResolutionService
	logger      *slog.Logger
}

// NewCallHandler creates a CallHandler with the given service and logger.
func NewCallHandler(resolutions ResolutionService, logger *slog.Logger) *CallHandler {
	return &CallHandler{
		resolutions: resolutions,
		logger:      logHandler(logger, "call"),
	}
}

type callEventRequest struct {
	MemberID        string `json:"member_id"`
	ProposedOutcome string `json:"proposed_outcome"`
	Justification   string `json:"justification"`
}

// CallEvent proposes an outcome and freezes betting.
// POST /api/events/{id}/calls
func (h *CallHandler) CallEvent(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	var req callEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	call, err := h.resolutions.CallEvent(r.Context(), eventID, req.MemberID, req.ProposedOutcome, req.Justification)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, call)
	case errors.Is(err, domain.ErrEventNotOpen):
		writeError(w, http.StatusConflict, "event is resolved")
	case errors.Is(err, domain.ErrUnknownOutcome):
		writeError(w, http.StatusBadRequest, "unknown outcome")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "event or member not found")
	default:
		h.logger.ErrorContext(r.Context(), "call event failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to call event")
	}
}

// ListCalls returns an event's calls, newest first.
// GET /api/events/{id}/calls
func (h *CallHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	calls, err := h.resolutions.ListCalls(r.Context(), eventID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list calls failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list calls")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"calls": calls})
}

type requesterRequest struct {
	RequesterID string `json:"requester_id"`
}

// ReverseCall retracts a call, thawing the market.
// POST /api/calls/{id}/reverse
func (h *CallHandler) ReverseCall(w http.ResponseWriter, r *http.Request) {
	callID := pathParam(r, "id")
	if callID == "" {
		writeError(w, http.StatusBadRequest, "missing call id")
		return
	}

	var req requesterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.resolutions.ReverseCall(r.Context(), callID, req.RequesterID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "reversed"})
	case errors.Is(err, domain.ErrCallReversed):
		writeError(w, http.StatusConflict, "call already reversed")
	case errors.Is(err, domain.ErrEventNotOpen):
		writeError(w, http.StatusConflict, "event is resolved")
	case errors.Is(err, domain.ErrNotCreator):
		writeError(w, http.StatusForbidden, "only the caller or party creator can reverse a call")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "call not found")
	default:
		h.logger.ErrorContext(r.Context(), "reverse call failed",
			slog.String("call_id", callID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to reverse call")
	}
}

type confirmOutcomeRequest struct {
	RequesterID string `json:"requester_id"`
	Outcome     string `json:"outcome"`
}

// ConfirmOutcome settles the event: winners split the losing pool and the
// event resolves.
// POST /api/events/{id}/confirm
func (h *CallHandler) ConfirmOutcome(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	var req confirmOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settlement, err := h.resolutions.ConfirmOutcome(r.Context(), eventID, req.RequesterID, req.Outcome)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"event_id":      settlement.EventID,
			"outcome":       settlement.Outcome,
			"winning_stake": settlement.TotalWinningStake,
			"losing_stake":  settlement.TotalLosingStake,
			"payouts":       settlement.Payouts,
		})
	case errors.Is(err, domain.ErrEventNotOpen):
		writeError(w, http.StatusConflict, "event already resolved")
	case errors.Is(err, domain.ErrUnknownOutcome):
		writeError(w, http.StatusBadRequest, "unknown outcome")
	case errors.Is(err, domain.ErrNotCreator):
		writeError(w, http.StatusForbidden, "only the party creator can confirm an outcome")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	default:
		h.logger.ErrorContext(r.Context(), "confirm outcome failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to confirm outcome")
	}
}

// ReverseOutcome undoes a confirmation: balances roll back and the event
// reopens.
// POST /api/events/{id}/reverse
func (h *CallHandler) ReverseOutcome(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	var req requesterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reversal, err := h.resolutions.ReverseOutcome(r.Context(), eventID, req.RequesterID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"event_id": reversal.EventID,
			"outcome":  reversal.Outcome,
			"status":   "reversed",
		})
	case errors.Is(err, domain.ErrEventNotResolved):
		writeError(w, http.StatusConflict, "event is not resolved")
	case errors.Is(err, domain.ErrNotCreator):
		writeError(w, http.StatusForbidden, "only the party creator can reverse a resolution")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	default:
		h.logger.ErrorContext(r.Context(), "reverse outcome failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to reverse outcome")
	}
}
