package handler

import (
	"net/http"

	"github.com/freeeve/polforge/api/internal/auth"
	"github.com/freeeve/polforge/api/pkg/campaign"
)

// Shadow handles GET /api/v1/games/{id}/shadow
func (h *GameHandler) Shadow(w http.ResponseWriter, r *http.Request) {
	views, err := h.gameSvc.Shadow(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// SetShadowAllocation handles PUT /api/v1/games/{id}/shadow/allocation
func (h *GameHandler) SetShadowAllocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Allocation *float64 `json:"allocation"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Allocation == nil {
		writeError(w, http.StatusBadRequest, "allocation is required")
		return
	}
	pct := *req.Allocation
	if err := h.gameSvc.SetShadowAllocation(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), pct); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"allocation": pct,
		"zone":       campaign.ZoneFor(pct),
	})
}

// ExecuteCovertOp handles POST /api/v1/games/{id}/shadow/operations
func (h *GameHandler) ExecuteCovertOp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Op campaign.CovertOp `json:"op"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid operation")
		return
	}
	res, err := h.gameSvc.ExecuteCovertOp(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), req.Op)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AttemptDenial handles POST /api/v1/games/{id}/shadow/denials
func (h *GameHandler) AttemptDenial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScandalID string `json:"scandal_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ScandalID == "" {
		writeError(w, http.StatusBadRequest, "scandal_id is required")
		return
	}
	ok, err := h.gameSvc.AttemptDenial(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()), req.ScandalID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"denied": ok})
}

// EstablishShellCompany handles POST /api/v1/games/{id}/shadow/shell
func (h *GameHandler) EstablishShellCompany(w http.ResponseWriter, r *http.Request) {
	cost, err := h.gameSvc.EstablishShellCompany(r.Context(), r.PathValue("id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"cost": cost})
}
