package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/dtos"
	"howfar/backend/internal/models/entities"
)

const clickCacheTTL = 5 * time.Minute

func intersectionOut(i *entities.Intersection) dtos.IntersectionOut {
	return dtos.IntersectionOut{
		ID:      i.ID,
		Name:    i.DisplayName(),
		Lat:     i.Lat,
		Lng:     i.Lng,
		Borough: i.Borough,
	}
}

// ClickHandler handles GET /api/click: it resolves the nearest cached origin
// to the clicked point and returns its band set, or both band sets for
// mode=compare.
func (h *Handlers) ClickHandler(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key, err := parseCacheKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := fmt.Sprintf("click:%.5f:%.5f:%s", lat, lng, key)
	if h.Cache != nil {
		if cached, found := h.Cache.Get(cacheKey); found {
			h.countCacheHit("click")
			writeJSON(w, http.StatusOK, cached)
			return
		}
		h.countCacheMiss("click")
	}

	var payload any
	var status int
	if key.Mode == "compare" {
		payload, status, err = h.compareClick(r, lat, lng, key)
	} else {
		payload, status, err = h.singleModeClick(r, lat, lng, key)
	}
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	if h.Cache != nil {
		h.Cache.Set(cacheKey, payload, clickCacheTTL)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) singleModeClick(r *http.Request, lat, lng float64, key entities.CacheKey) (any, int, error) {
	nearest, bands, err := h.Isochrones.NearestWithIsochrone(r.Context(), lat, lng, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, http.StatusNotFound, errors.New(constants.ErrMsgNoCacheHit)
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if len(bands) == 0 {
		return nil, http.StatusNotFound, errors.New(constants.ErrMsgNoCacheHit)
	}

	return dtos.ClickResponse{
		Intersection: intersectionOut(nearest),
		Isochrone:    bands,
		Source:       "cache",
	}, http.StatusOK, nil
}

// compareClick resolves one origin carrying bands under both transit and bike
// so the two sets overlay exactly.
func (h *Handlers) compareClick(r *http.Request, lat, lng float64, key entities.CacheKey) (any, int, error) {
	ctx := r.Context()

	nearest, err := h.Isochrones.NearestWithBothModes(ctx, lat, lng, key.DepartureTime, key.DayType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, http.StatusNotFound, errors.New(constants.ErrMsgNoCacheHit)
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	transitKey := entities.CacheKey{Mode: constants.ModeTransit, DepartureTime: key.DepartureTime, DayType: key.DayType}
	bikeKey := entities.CacheKey{Mode: constants.ModeBike, DepartureTime: key.DepartureTime, DayType: key.DayType}

	transit, err := h.Isochrones.GetCachedIsochrone(ctx, nearest.ID, transitKey)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	bike, err := h.Isochrones.GetCachedIsochrone(ctx, nearest.ID, bikeKey)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	return dtos.CompareResponse{
		Intersection: intersectionOut(nearest),
		Isochrone:    dtos.CompareBands{Transit: transit, Bike: bike},
		Source:       "cache",
	}, http.StatusOK, nil
}

func (h *Handlers) countCacheHit(pattern string) {
	if h.Metrics != nil {
		h.Metrics.CacheHitsTotal.WithLabelValues(pattern).Inc()
	}
}

func (h *Handlers) countCacheMiss(pattern string) {
	if h.Metrics != nil {
		h.Metrics.CacheMissesTotal.WithLabelValues(pattern).Inc()
	}
}
