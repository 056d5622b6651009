package ingest

// Bounds is a lat/lng window for filtering ingest candidates.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// NYCBounds covers the five boroughs.
var NYCBounds = Bounds{
	MinLat: 40.4774,
	MaxLat: 40.9176,
	MinLng: -74.2591,
	MaxLng: -73.7004,
}

// TristateBounds covers NY, NJ, CT and eastern PA.
var TristateBounds = Bounds{
	MinLat: 39.8,
	MaxLat: 41.5,
	MinLng: -75.5,
	MaxLng: -73.2,
}

// Contains reports whether the point falls inside the window.
func (b Bounds) Contains(lat, lng float64) bool {
	return b.MinLat <= lat && lat <= b.MaxLat && b.MinLng <= lng && lng <= b.MaxLng
}

// Region tags a coordinate with its borough or surrounding state. The rules
// are coarse straight-line splits along the Hudson, the Delaware, and the
// CT border; borough boundaries are approximate.
func Region(lat, lng float64) string {
	switch {
	case lat > 41.0 && lng > -73.73:
		return "Connecticut"
	case lng < -74.7:
		return "Pennsylvania"
	case lng < -74.05 && lat > 40.5:
		return "New Jersey"
	case lng < -74.15 && lat <= 40.5:
		return "New Jersey"
	case lat > 41.0:
		return "New York"
	case lat > 40.8:
		return "Bronx"
	case lng > -73.85 && lat < 40.75:
		return "Queens"
	case lat < 40.65:
		return "Brooklyn"
	case lng < -74.05:
		return "Staten Island"
	default:
		return "Manhattan"
	}
}
