package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fnanalytics/stats-api/internal/models"
)

// GetFilteredStats handles POST /api/v1/stats/filtered
// @Summary Filtered Player Stats
// @Description Aggregates eliminations, damage dealt and damage received per player for the given filters
// @Tags Stats
// @Accept json
// @Produce json
// @Param body body models.StatFilters true "Filters"
// @Success 200 {array} models.PlayerRow
// @Failure 400 {object} map[string]string "Invalid filters"
// @Failure 500 {object} map[string]string "Internal Error"
// @Router /stats/filtered [post]
func (h *Handler) GetFilteredStats(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	var filters models.StatFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		if errors.Is(err, models.ErrInvalidFilters) {
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	rows, err := h.filteredStats.GetFilteredStats(r.Context(), filters)
	if errors.Is(err, models.ErrInvalidFilters) {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Errorw("Failed to compute filtered stats",
			"matches", len(filters.SelectedMatches),
			"weapons", filters.WeaponTypes,
			"timeRange", filters.TimeRange,
			"distanceRange", filters.DistanceRange,
			"error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	h.jsonResponse(w, http.StatusOK, rows)
}
