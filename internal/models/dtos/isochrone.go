package dtos

import (
	"encoding/json"
	"fmt"

	"howfar/backend/internal/models/entities"
)

// BandSet maps response keys ("isochrone_15m".."isochrone_180m") to GeoJSON
// geometry documents.
type BandSet map[string]json.RawMessage

// BandKey renders the response key for one cutoff.
func BandKey(cutoffMinutes int) string {
	return fmt.Sprintf("isochrone_%dm", cutoffMinutes)
}

// IntersectionOut is the origin wrapper in click responses.
type IntersectionOut struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Borough string  `json:"borough"`
}

// ClickResponse is the single-mode payload for /api/click.
type ClickResponse struct {
	Intersection IntersectionOut `json:"intersection"`
	Isochrone    BandSet         `json:"isochrone"`
	Source       string          `json:"source"`
}

// CompareBands carries both mode band sets from a single origin.
type CompareBands struct {
	Transit BandSet `json:"transit"`
	Bike    BandSet `json:"bike"`
}

// CompareResponse is the mode=compare payload for /api/click.
type CompareResponse struct {
	Intersection IntersectionOut `json:"intersection"`
	Isochrone    CompareBands    `json:"isochrone"`
	Source       string          `json:"source"`
}

// IsochroneResponse is the /api/isochrone/:id payload, without the
// intersection wrapping.
type IsochroneResponse struct {
	Isochrone BandSet `json:"isochrone"`
	Source    string  `json:"source"`
}

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	TotalIntersections int64                  `json:"total_intersections"`
	CachedOrigins      int64                  `json:"cached_origins"`
	Modes              []entities.ModeSummary `json:"modes"`
	Statuses           []entities.StatusCount `json:"statuses"`
}
