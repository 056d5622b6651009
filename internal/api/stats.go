package api

import (
	"net/http"

	"howfar/backend/internal/config"
	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/dtos"
	"howfar/backend/internal/models/entities"
)

// ModesHandler handles GET /api/modes: the supported cache-key dimensions.
func (h *Handlers) ModesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"modes":     constants.Modes,
		"day_types": constants.DayTypes,
		"cutoffs":   config.DefaultCutoffs,
	})
}

// StatsHandler handles GET /api/stats: global cache counters plus per-status
// queue counters for the requested cache key.
func (h *Handlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	key, err := parseCacheKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if key.Mode == "compare" {
		key.Mode = constants.ModeTransit
	}
	ctx := r.Context()

	total, err := h.Intersections.Total(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	cached, err := h.Batch.CachedOriginCount(ctx, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	modes, err := h.Stats.ModeSummaries(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	statuses, err := h.Batch.StatusCounts(ctx, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if modes == nil {
		modes = []entities.ModeSummary{}
	}
	if statuses == nil {
		statuses = []entities.StatusCount{}
	}

	writeJSON(w, http.StatusOK, dtos.StatsResponse{
		TotalIntersections: total,
		CachedOrigins:      cached,
		Modes:              modes,
		Statuses:           statuses,
	})
}

// BoundsHandler handles GET /api/stats/bounds: the extent of every cached
// band geometry, or null when the cache is empty.
func (h *Handlers) BoundsHandler(w http.ResponseWriter, r *http.Request) {
	bounds, err := h.Stats.CachedBounds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bounds": bounds})
}
