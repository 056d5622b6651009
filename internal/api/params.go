package api

import (
	"errors"
	"net/http"
	"strconv"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/db/repositories"
	"howfar/backend/internal/models/entities"
)

// Defaults for the cache-key query parameters.
const (
	DefaultDepartureTime = "10:00:00"
	defaultViewportLimit = 2000
)

var (
	errMissingCoords = errors.New(constants.ErrMsgInvalidCoords)
	errInvalidMode   = errors.New(constants.ErrMsgInvalidMode)
	errInvalidDay    = errors.New(constants.ErrMsgInvalidDay)
)

// parseLatLng reads required lat/lng query parameters.
func parseLatLng(r *http.Request) (float64, float64, error) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return 0, 0, errMissingCoords
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		return 0, 0, errMissingCoords
	}
	return lat, lng, nil
}

// parseCacheKey reads mode/time/dayType with defaults. mode may also be the
// pseudo-mode "compare", which callers handle before validation.
func parseCacheKey(r *http.Request) (entities.CacheKey, error) {
	q := r.URL.Query()

	key := entities.CacheKey{
		Mode:          q.Get("mode"),
		DepartureTime: q.Get("time"),
		DayType:       q.Get("dayType"),
	}
	if key.Mode == "" {
		key.Mode = constants.ModeTransit
	}
	if key.DepartureTime == "" {
		key.DepartureTime = DefaultDepartureTime
	}
	if key.DayType == "" {
		key.DayType = constants.DayTypeWeekday
	}

	if key.Mode != "compare" && !constants.IsValidMode(key.Mode) {
		return key, errInvalidMode
	}
	if !constants.IsValidDayType(key.DayType) {
		return key, errInvalidDay
	}
	return key, nil
}

// parseViewport reads the required bounding-box parameters.
func parseViewport(r *http.Request) (repositories.Viewport, error) {
	q := r.URL.Query()

	var vp repositories.Viewport
	var err error
	if vp.MinLat, err = strconv.ParseFloat(q.Get("minLat"), 64); err != nil {
		return vp, errMissingCoords
	}
	if vp.MaxLat, err = strconv.ParseFloat(q.Get("maxLat"), 64); err != nil {
		return vp, errMissingCoords
	}
	if vp.MinLng, err = strconv.ParseFloat(q.Get("minLng"), 64); err != nil {
		return vp, errMissingCoords
	}
	if vp.MaxLng, err = strconv.ParseFloat(q.Get("maxLng"), 64); err != nil {
		return vp, errMissingCoords
	}
	return vp, nil
}

// parseLimit reads an optional positive limit with a fallback.
func parseLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
