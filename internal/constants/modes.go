package constants

// Travel modes accepted by the cache key and the batch CLI.
const (
	ModeTransit     = "transit"
	ModeTransitBike = "transit_bike"
	ModeBike        = "bike"
	ModeWalk        = "walk"
)

// Modes lists every supported travel mode.
var Modes = []string{ModeTransit, ModeTransitBike, ModeBike, ModeWalk}

// Day types accepted by the cache key.
const (
	DayTypeWeekday  = "weekday"
	DayTypeSaturday = "saturday"
	DayTypeSunday   = "sunday"
)

// DayTypes lists every supported day type.
var DayTypes = []string{DayTypeWeekday, DayTypeSaturday, DayTypeSunday}

// Batch status values for the work queue.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// BandCount is the number of cutoff bands a fully cached origin carries.
const BandCount = 8

// IsValidMode reports whether m is a supported travel mode.
func IsValidMode(m string) bool {
	for _, mode := range Modes {
		if mode == m {
			return true
		}
	}
	return false
}

// IsValidDayType reports whether d is a supported day type.
func IsValidDayType(d string) bool {
	for _, dt := range DayTypes {
		if dt == d {
			return true
		}
	}
	return false
}
