package entities

import "fmt"

// CacheKey identifies one isochrone computation request independent of the
// origin: travel mode, departure time of day, and day type.
type CacheKey struct {
	Mode          string
	DepartureTime string
	DayType       string
}

// String renders the key for logs and cache lookups.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Mode, k.DepartureTime, k.DayType)
}
