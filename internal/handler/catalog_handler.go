package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/polforge/api/internal/catalog"
)

// CatalogHandler serves the region catalog races are played over.
type CatalogHandler struct {
	cat *catalog.Catalog
}

// NewCatalogHandler creates a CatalogHandler. A nil catalog serves the
// built-in regions without planning data.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{cat: cat}
}

type regionPlan struct {
	ID       string            `json:"id"`
	Staffing catalog.Staffing  `json:"staffing"`
	Budget   catalog.Budget    `json:"budget"`
	Target   *catalog.Pacing   `json:"target,omitempty"`
	Metadata *catalog.Metadata `json:"metadata,omitempty"`
}

// ListRegions handles GET /api/v1/catalog/regions
func (h *CatalogHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cat.Regions(nil))
}

// GetRegion handles GET /api/v1/catalog/regions/{id}. An optional ?week=
// adds that week's staffing and spend target.
func (h *CatalogHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	staffing, ok := h.cat.StaffingFor(id)
	if !ok {
		writeError(w, http.StatusNotFound, "region not in catalog")
		return
	}
	budget, _ := h.cat.BudgetFor(id)
	plan := regionPlan{ID: id, Staffing: staffing, Budget: budget}

	if s := r.URL.Query().Get("week"); s != "" {
		week, err := strconv.Atoi(s)
		if err != nil || week < 1 {
			writeError(w, http.StatusBadRequest, "week must be a positive number")
			return
		}
		if p, ok := h.cat.WeeklyTarget(id, week); ok {
			plan.Target = &p
		}
	}
	if md := h.cat.Metadata(); md.StateCount > 0 {
		plan.Metadata = &md
	}
	writeJSON(w, http.StatusOK, plan)
}
