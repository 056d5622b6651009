package spatial

import (
	"bytes"
	"encoding/json"
)

// Geometry is a GeoJSON geometry kept as raw coordinates. The cache store
// hands geometries to PostGIS verbatim; the only inspection the pipeline
// needs is emptiness and distinctness.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is one member of a routing worker FeatureCollection.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// FeatureCollection is the routing worker response envelope.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// IsEmpty reports whether the geometry has no coordinates. A truncated
// search produces a polygon whose coordinate list is absent or [].
func (g Geometry) IsEmpty() bool {
	trimmed := bytes.TrimSpace(g.Coordinates)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	var coords []json.RawMessage
	if err := json.Unmarshal(trimmed, &coords); err != nil {
		return true
	}
	return len(coords) == 0
}

// Fingerprint returns a comparable key for distinctness checks across
// features. Whitespace differences do not matter because the worker emits
// compact JSON.
func (g Geometry) Fingerprint() string {
	return g.Type + ":" + string(bytes.TrimSpace(g.Coordinates))
}

// MarshalGeoJSON serialises the geometry back to a GeoJSON document.
func (g Geometry) MarshalGeoJSON() ([]byte, error) {
	return json.Marshal(g)
}

// DistinctCount counts distinct geometries among the given features.
func DistinctCount(features []Feature) int {
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		seen[f.Geometry.Fingerprint()] = struct{}{}
	}
	return len(seen)
}
