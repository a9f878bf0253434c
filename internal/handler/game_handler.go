package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/internal/auth"
	"github.com/freeeve/polforge/api/internal/service"
	"github.com/freeeve/polforge/api/pkg/campaign"
)

// GameHandler handles campaign endpoints.
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// writeServiceError maps service and engine errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "you do not own this game")
	case errors.Is(err, service.ErrNeedsResume):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoReport):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBadRequest),
		errors.Is(err, campaign.ErrInvalidTarget),
		errors.Is(err, campaign.ErrInvalidAction),
		errors.Is(err, campaign.ErrInvalidAllocation),
		errors.Is(err, campaign.ErrScandalNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, campaign.ErrNotYourTurn),
		errors.Is(err, campaign.ErrGameNotPlaying),
		errors.Is(err, campaign.ErrGameEnded),
		errors.Is(err, campaign.ErrNoActionsRemaining),
		errors.Is(err, campaign.ErrInsufficientFunds),
		errors.Is(err, campaign.ErrAllocationTooLow),
		errors.Is(err, campaign.ErrAlreadyDenied),
		errors.Is(err, campaign.ErrNoRegions):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req service.CreateParams
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PrimaryName == "" {
		req.PrimaryName = auth.DisplayNameFromContext(r.Context())
	}

	game, err := h.gameSvc.CreateGame(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	games, err := h.gameSvc.ListGames(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gs, err := h.gameSvc.State(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.gameSvc.DeleteGame(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gs, err := h.gameSvc.StartGame(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

// ResumeGame handles POST /api/v1/games/{id}/resume. An unreadable save is
// replaced by a fresh race and reported as a warning, not a failure.
func (h *GameHandler) ResumeGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameSvc.ResumeGame(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	switch {
	case errors.Is(err, service.ErrCouldNotResume):
		writeJSON(w, http.StatusOK, map[string]any{"game": game, "warning": err.Error()})
	case err != nil:
		writeServiceError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"game": game})
	}
}

// SubmitAction handles POST /api/v1/games/{id}/actions
func (h *GameHandler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    campaign.ActionType `json:"type"`
		Regions []string            `json:"regions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.gameSvc.SubmitAction(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), campaign.Action{
		Type:    req.Type,
		Regions: req.Regions,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EndTurn handles POST /api/v1/games/{id}/turn/end
func (h *GameHandler) EndTurn(w http.ResponseWriter, r *http.Request) {
	if err := h.gameSvc.EndTurn(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "opponent_turn"})
}

// Recommendations handles GET /api/v1/games/{id}/recommendations
func (h *GameHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.gameSvc.Recommendations(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if recs == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Analytics handles GET /api/v1/games/{id}/analytics
func (h *GameHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.gameSvc.Analytics(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Events handles GET /api/v1/games/{id}/events
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	evs, err := h.gameSvc.Events(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

// Report handles GET /api/v1/games/{id}/report
func (h *GameHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.gameSvc.Report(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": report.Summary(),
		"report":  report,
	})
}
