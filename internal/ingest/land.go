package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"gorm.io/gorm"
)

// ImportLandBoundary loads a GeoJSON land polygon into the single-row
// land_boundary table. The file may be a bare geometry or a Feature; a
// FeatureCollection uses its first feature.
func ImportLandBoundary(db *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	geometry, err := extractGeometry(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return db.Exec(
		`INSERT INTO land_boundary (id, geometry)
		VALUES (1, ST_CollectionExtract(ST_MakeValid(ST_SetSRID(ST_GeomFromGeoJSON(?), 4326)), 3))
		ON CONFLICT (id) DO UPDATE SET geometry = EXCLUDED.geometry`,
		string(geometry),
	).Error
}

func extractGeometry(raw []byte) (json.RawMessage, error) {
	var doc struct {
		Type     string          `json:"type"`
		Geometry json.RawMessage `json:"geometry"`
		Features []struct {
			Geometry json.RawMessage `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("not valid GeoJSON: %w", err)
	}

	switch doc.Type {
	case "Feature":
		if len(doc.Geometry) == 0 {
			return nil, fmt.Errorf("feature has no geometry")
		}
		return doc.Geometry, nil
	case "FeatureCollection":
		if len(doc.Features) == 0 {
			return nil, fmt.Errorf("feature collection is empty")
		}
		return doc.Features[0].Geometry, nil
	case "":
		return nil, fmt.Errorf("missing GeoJSON type")
	default:
		return json.RawMessage(raw), nil
	}
}
