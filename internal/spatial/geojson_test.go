package spatial

import (
	"encoding/json"
	"math"
	"testing"
)

func polygon(coords string) Geometry {
	return Geometry{Type: "Polygon", Coordinates: json.RawMessage(coords)}
}

func TestGeometryIsEmpty(t *testing.T) {
	cases := []struct {
		name string
		geom Geometry
		want bool
	}{
		{"full polygon", polygon(`[[[0,0],[1,0],[1,1],[0,0]]]`), false},
		{"empty coordinate list", polygon(`[]`), true},
		{"null coordinates", polygon(`null`), true},
		{"absent coordinates", Geometry{Type: "Polygon"}, true},
		{"whitespace only", polygon(`   `), true},
		{"unparseable coordinates", polygon(`{`), true},
	}
	for _, tc := range cases {
		if got := tc.geom.IsEmpty(); got != tc.want {
			t.Errorf("%s: IsEmpty = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDistinctCount(t *testing.T) {
	a := Feature{Geometry: polygon(`[[[0,0],[1,0],[1,1],[0,0]]]`)}
	b := Feature{Geometry: polygon(`[[[0,0],[2,0],[2,2],[0,0]]]`)}
	aAgain := Feature{Geometry: polygon(`[[[0,0],[1,0],[1,1],[0,0]]]`)}

	if got := DistinctCount(nil); got != 0 {
		t.Errorf("DistinctCount(nil) = %d, want 0", got)
	}
	if got := DistinctCount([]Feature{a, aAgain}); got != 1 {
		t.Errorf("expected identical geometries to collapse, got %d", got)
	}
	if got := DistinctCount([]Feature{a, b, aAgain}); got != 2 {
		t.Errorf("DistinctCount = %d, want 2", got)
	}
}

func TestMarshalGeoJSONRoundTrip(t *testing.T) {
	original := polygon(`[[[0,0],[1,0],[1,1],[0,0]]]`)
	raw, err := original.MarshalGeoJSON()
	if err != nil {
		t.Fatalf("MarshalGeoJSON failed: %v", err)
	}

	var back Geometry
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if back.Type != "Polygon" {
		t.Errorf("type = %q, want Polygon", back.Type)
	}
	if back.Fingerprint() != original.Fingerprint() {
		t.Errorf("fingerprint changed across the round trip")
	}
}

func TestGreatCircleDistance(t *testing.T) {
	// Times Square to Grand Central is roughly 0.9 km.
	d := GreatCircleDistance(40.7580, -73.9855, 40.7527, -73.9772)
	if d < 850 || d > 1250 {
		t.Errorf("distance = %f, want roughly 900 m", d)
	}

	if d := GreatCircleDistance(40.7, -74.0, 40.7, -74.0); d != 0 {
		t.Errorf("distance between identical points = %f, want 0", d)
	}
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	lat, lng := 40.7580, -73.9855
	radius := 500.0

	minLat, maxLat, minLng, maxLng := BoundingBox(lat, lng, radius)
	if minLat >= lat || maxLat <= lat || minLng >= lng || maxLng <= lng {
		t.Fatalf("box [%f %f %f %f] does not surround the center", minLat, maxLat, minLng, maxLng)
	}

	// The box edge must be at least radius away from the center.
	if d := GreatCircleDistance(lat, lng, maxLat, lng); d < radius-1 {
		t.Errorf("north edge at %f m, want at least %f", d, radius)
	}
	if d := GreatCircleDistance(lat, lng, lat, maxLng); d < radius-1 {
		t.Errorf("east edge at %f m, want at least %f", d, radius)
	}

	// The longitude window widens away from the equator.
	if (maxLng - lng) <= (maxLat - lat) {
		t.Error("expected the longitude delta to exceed the latitude delta at NYC latitudes")
	}

	if math.IsNaN(minLng) || math.IsNaN(maxLng) {
		t.Error("bounding box produced NaN")
	}
}
