package api

import (
	"net/http"
	"strconv"

	"howfar/backend/internal/models/entities"
)

const (
	defaultStopsLimit    = 500
	defaultNearbyLimit   = 50
	defaultNearbyRadiusM = 500.0
)

// StopsViewportHandler handles GET /api/transit/stops/viewport.
func (h *Handlers) StopsViewportHandler(w http.ResponseWriter, r *http.Request) {
	vp, err := parseViewport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := parseLimit(r, defaultStopsLimit)

	stops, err := h.Stops.InViewport(r.Context(), vp, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stops == nil {
		stops = []entities.TransitStop{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stops": stops,
		"count": len(stops),
	})
}

// StopsNearbyHandler handles GET /api/transit/stops/nearby: stops within a
// radius of the point, nearest first.
func (h *Handlers) StopsNearbyHandler(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	radius := defaultNearbyRadiusM
	if raw := r.URL.Query().Get("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "radius must be a positive number of meters")
			return
		}
		radius = v
	}
	limit := parseLimit(r, defaultNearbyLimit)

	stops, err := h.Stops.Nearby(r.Context(), lat, lng, radius, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stops == nil {
		stops = []entities.TransitStop{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stops": stops,
		"count": len(stops),
	})
}
