package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for geodesic conversions.
const EarthRadiusMeters = 6371000.0

// GreatCircleDistance returns the geodesic distance in meters between two
// lat/lng points.
func GreatCircleDistance(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// BoundingBox returns a lat/lng window that fully contains the circle of
// radiusMeters around the center. Used as an index-friendly pre-filter ahead
// of an exact ST_DWithin predicate.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := (radiusMeters / EarthRadiusMeters) * (180 / math.Pi)
	lngDelta := latDelta / math.Cos(lat*math.Pi/180)
	return lat - latDelta, lat + latDelta, lng - lngDelta, lng + lngDelta
}
