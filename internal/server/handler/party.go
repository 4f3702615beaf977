package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// PartyService defines the methods the party handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type PartyService interface {
	CreateParty(ctx context.Context, name, creatorDisplayName string, startingMofus int64) (domain.Party, domain.Member, error)
	JoinParty(ctx context.Context, code, displayName string) (domain.Party, domain.Member, error)
	GetParty(ctx context.Context, id string) (domain.Party, error)
	GetPartyBySlug(ctx context.Context, slug string) (domain.Party, error)
	ListMembers(ctx context.Context, partyID string) ([]domain.Member, error)
	KickMember(ctx context.Context, partyID, requesterID, targetID string) error
}

// PartyHandler serves party and membership endpoints.
type PartyHandler struct {
	parties PartyService
	logger  *slog.Logger
}

// NewPartyHandler creates a PartyHandler with the given service and logger.
func NewPartyHandler(parties PartyService, logger *slog.Logger) *PartyHandler {
	return &PartyHandler{
		parties: parties,
		logger:  logHandler(logger, "party"),
	}
}

type createPartyRequest struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	StartingMofus int64  `json:"starting_mofus"`
}

type partyMemberResponse struct {
	Party  domain.Party  `json:"party"`
	Member domain.Member `json:"member"`
}

// CreateParty creates a party and its creator member.
// POST /api/parties
func (h *PartyHandler) CreateParty(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	party, member, err := h.parties.CreateParty(r.Context(), req.Name, req.DisplayName, req.StartingMofus)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "create party failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to create party")
		return
	}

	writeJSON(w, http.StatusCreated, partyMemberResponse{Party: party, Member: member})
}

type joinPartyRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// JoinParty joins a party by its code; rejoining under a known display name
// returns the existing member.
// POST /api/parties/join
func (h *PartyHandler) JoinParty(w http.ResponseWriter, r *http.Request) {
	var req joinPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	party, member, err := h.parties.JoinParty(r.Context(), req.Code, req.DisplayName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "party not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "join party failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to join party")
		return
	}

	writeJSON(w, http.StatusOK, partyMemberResponse{Party: party, Member: member})
}

// GetParty returns a party by id, or by slug via ?slug=.
// GET /api/parties/{id}
func (h *PartyHandler) GetParty(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing party id")
		return
	}

	party, err := h.parties.GetParty(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "party not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get party failed",
			slog.String("party_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get party")
		return
	}

	writeJSON(w, http.StatusOK, party)
}

// GetPartyBySlug returns a party by its URL slug.
// GET /api/parties/slug/{slug}
func (h *PartyHandler) GetPartyBySlug(w http.ResponseWriter, r *http.Request) {
	slug := pathParam(r, "slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "missing party slug")
		return
	}

	party, err := h.parties.GetPartyBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "party not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get party by slug failed",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get party")
		return
	}

	writeJSON(w, http.StatusOK, party)
}

// ListMembers returns the party's members with their balances.
// GET /api/parties/{id}/members
func (h *PartyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing party id")
		return
	}

	members, err := h.parties.ListMembers(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list members failed",
			slog.String("party_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

type kickMemberRequest struct {
	RequesterID string `json:"requester_id"`
}

// KickMember removes a member from the party. Creator only.
// DELETE /api/parties/{id}/members/{memberID}
func (h *PartyHandler) KickMember(w http.ResponseWriter, r *http.Request) {
	partyID := pathParam(r, "id")
	memberID := pathParam(r, "memberID")
	if partyID == "" || memberID == "" {
		writeError(w, http.StatusBadRequest, "missing party or member id")
		return
	}

	var req kickMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.parties.KickMember(r.Context(), partyID, req.RequesterID, memberID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "kicked"})
	case errors.Is(err, domain.ErrNotCreator):
		writeError(w, http.StatusForbidden, "only the party creator can kick members")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "member not found")
	default:
		h.logger.ErrorContext(r.Context(), "kick member failed",
			slog.String("party_id", partyID),
			slog.String("member_id", memberID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "failed to kick member")
	}
}
