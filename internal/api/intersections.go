package api

import (
	"net/http"
	"strconv"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/entities"
)

// ViewportHandler handles GET /api/intersections/viewport: origins inside a
// bounding box with their computed flag for the cache key. sampleGroup
// restricts the result to one deterministic quarter of the origins.
func (h *Handlers) ViewportHandler(w http.ResponseWriter, r *http.Request) {
	vp, err := parseViewport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key, err := parseCacheKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if key.Mode == "compare" {
		key.Mode = constants.ModeTransit
	}

	sampleGroup := -1
	if raw := r.URL.Query().Get("sampleGroup"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "sampleGroup must be a non-negative integer")
			return
		}
		sampleGroup = n
	}

	limit := parseLimit(r, defaultViewportLimit)

	intersections, err := h.Intersections.InViewport(r.Context(), vp, key, sampleGroup, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if intersections == nil {
		intersections = []entities.Intersection{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"intersections": intersections,
		"count":         len(intersections),
	})
}
