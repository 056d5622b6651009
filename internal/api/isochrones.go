package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/dtos"
)

// IsochroneByIDHandler handles GET /api/isochrone/{id}: the band set for one
// known origin, without the intersection wrapping.
func (h *Handlers) IsochroneByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	key, err := parseCacheKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if key.Mode == "compare" {
		writeError(w, http.StatusBadRequest, constants.ErrMsgInvalidMode)
		return
	}

	if _, err := h.Intersections.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no such intersection")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	bands, err := h.Isochrones.GetCachedIsochrone(r.Context(), id, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(bands) == 0 {
		writeError(w, http.StatusNotFound, constants.ErrMsgNoCacheHit)
		return
	}

	writeJSON(w, http.StatusOK, dtos.IsochroneResponse{
		Isochrone: bands,
		Source:    "cache",
	})
}
