package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mofulabs/mofumarket/internal/domain"
	"github.com/mofulabs/mofumarket/internal/service"
)

// EventService defines the methods the event handler requires from the
// service layer.
type EventService interface {
	CreateEvent(ctx context.Context, partyID, requesterID, title, description string, outcomeNames []string) (service.EventView, error)
	GetEvent(ctx context.Context, eventID string) (service.EventView, error)
	ListEvents(ctx context.Context, partyID string) ([]domain.Event, error)
	UpdateTitle(ctx context.Context, eventID, requesterID, title string) error
	PriceHistory(ctx context.Context, eventID string) ([]domain.PricePoint, error)
}

// EventHandler serves event endpoints.
type EventHandler struct {
	events EventService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler with the given service and logger.
func NewEventHandler(events EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		logger: logHandler(logger, "event"),
	}
}

type createEventRequest struct {
	PartyID     string   `json:"party_id"`
	RequesterID string   `json:"requester_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Outcomes    []string `json:"outcomes"`
}

// CreateEvent creates an event with its outcome set.
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.events.CreateEvent(r.Context(), req.PartyID, req.RequesterID, req.Title, req.Description, req.Outcomes)
	if err != nil {
		if errors.Is(err, domain.ErrNotCreator) {
			writeError(w, http.StatusForbidden, "only the party creator can create events")
			return
		}
		h.logger.ErrorContext(r.Context(), "create event failed",
			slog.String("party_id", req.PartyID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// GetEvent returns an event with outcomes, live prices, and freeze state.
// GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	view, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get event failed",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ListEvents returns a party's events, newest first.
// GET /api/parties/{id}/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	partyID := pathParam(r, "id")
	if partyID == "" {
		writeError(w, http.StatusBadRequest, "missing party id")
		return
	}

	events, err := h.events.ListEvents(r.Context(), partyID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list events failed",
			slog.String("party_id", partyID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type updateTitleRequest struct {
	RequesterID string `json:"requester_id"`
	Title       string `json:"title"`
}

// UpdateTitle renames an event. Creator only.
// PATCH /api/events/{id}
func (h *EventHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	var req updateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.events.UpdateTitle(r.Context(), id, req.RequesterID, req.Title)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	case errors.Is(err, domain.ErrNotCreator):
		writeError(w, http.StatusForbidden, "only the party creator can rename events")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	default:
		h.logger.ErrorContext(r.Context(), "update title failed",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to update title")
	}
}

// PriceHistory returns the full price series for an event, oldest first.
// GET /api/events/{id}/prices
func (h *EventHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	points, err := h.events.PriceHistory(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "price history failed",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get price history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"prices": points})
}
