package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fnanalytics/stats-api/internal/logic"
	"github.com/fnanalytics/stats-api/internal/models"
)

// ============================================================================
// TOURNAMENT ENDPOINTS
// ============================================================================

// GetTournaments returns list of tournaments
// @Summary List Tournaments
// @Tags Tournaments
// @Produce json
// @Success 200 {array} models.Tournament
// @Failure 500 {object} map[string]string "Internal Error"
// @Router /tournaments [get]
func (h *Handler) GetTournaments(w http.ResponseWriter, r *http.Request) {
	list, err := h.tournament.GetTournaments(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to get tournaments", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to get tournaments")
		return
	}
	h.jsonResponse(w, http.StatusOK, list)
}

// GetTournament returns details
// @Summary Get Tournament Details
// @Tags Tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} models.Tournament
// @Failure 404 {object} map[string]string "Not Found"
// @Router /tournaments/{id} [get]
func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing tournament ID")
		return
	}

	t, err := h.tournament.GetTournament(r.Context(), id)
	if err != nil {
		h.tournamentError(w, id, "Failed to get tournament", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, t)
}

// GetTournamentMatches lists the selectable matches
// @Summary List Tournament Matches
// @Tags Tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {array} models.MatchOption
// @Router /tournaments/{id}/matches [get]
func (h *Handler) GetTournamentMatches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	matches, err := h.tournament.GetMatches(r.Context(), id)
	if err != nil {
		h.tournamentError(w, id, "Failed to get matches", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, matches)
}

// GetTournamentWeapons lists the selectable weapon types
// @Summary List Tournament Weapon Types
// @Tags Tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {array} models.WeaponOption
// @Router /tournaments/{id}/weapons [get]
func (h *Handler) GetTournamentWeapons(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	weapons, err := h.tournament.GetWeaponTypes(r.Context(), id)
	if err != nil {
		h.tournamentError(w, id, "Failed to get weapon types", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, weapons)
}

// GetTournamentPlayers lists the players of the tournament, or of the
// comma separated `matches` query parameter when given
// @Summary List Tournament Players
// @Tags Tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Param matches query string false "Comma separated match IDs"
// @Success 200 {array} models.PlayerOption
// @Router /tournaments/{id}/players [get]
func (h *Handler) GetTournamentPlayers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	var matchIDs []string
	if q := r.URL.Query().Get("matches"); q != "" {
		for _, m := range strings.Split(q, ",") {
			if m = strings.TrimSpace(m); m != "" {
				matchIDs = append(matchIDs, m)
			}
		}
	} else {
		matches, err := h.tournament.GetMatches(ctx, id)
		if err != nil {
			h.tournamentError(w, id, "Failed to get matches", err)
			return
		}
		for _, m := range matches {
			matchIDs = append(matchIDs, m.ID)
		}
	}

	players, err := h.tournament.GetPlayers(ctx, matchIDs)
	if err != nil {
		h.tournamentError(w, id, "Failed to get players", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, players)
}

// GetTournamentStats returns the initial stats table: every match and weapon
// of the tournament over the full time and distance windows
// @Summary Get Tournament Stats
// @Tags Tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {array} models.PlayerRow
// @Failure 404 {object} map[string]string "Not Found"
// @Router /tournaments/{id}/stats [get]
func (h *Handler) GetTournamentStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing tournament ID")
		return
	}

	filters, err := h.tournament.DefaultFilters(r.Context(), id)
	if err != nil {
		h.tournamentError(w, id, "Failed to get stats", err)
		return
	}
	// An empty match set means "every match" to the engine
	if len(filters.SelectedMatches) == 0 {
		h.jsonResponse(w, http.StatusOK, []models.PlayerRow{})
		return
	}

	rows, err := h.filteredStats.GetFilteredStats(r.Context(), filters)
	if err != nil {
		h.tournamentError(w, id, "Failed to get stats", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, rows)
}

func (h *Handler) tournamentError(w http.ResponseWriter, id, message string, err error) {
	if errors.Is(err, logic.ErrNotFound) {
		h.errorResponse(w, http.StatusNotFound, "Tournament not found")
		return
	}
	h.logger.Errorw(message, "id", id, "error", err)
	h.errorResponse(w, http.StatusInternalServerError, message)
}
