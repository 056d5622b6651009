package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"howfar/backend/internal/logging"
	gormModels "howfar/backend/internal/models/gorm"
)

const upsertBatchSize = 1000

// IntersectionRecord is one extracted intersection node.
type IntersectionRecord struct {
	OSMNodeID int64
	Name      string
	Lat       float64
	Lng       float64
}

// ReadIntersectionsCSV parses an exported node list. Columns: osm_node_id,
// lat, lng, and an optional name. A header row is skipped when present.
func ReadIntersectionsCSV(path string) ([]IntersectionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var records []IntersectionRecord
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns", line)
		}

		nodeID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("line %d: osm_node_id %q is not an integer", line, row[0])
		}
		lat, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad lat %q", line, row[1])
		}
		lng, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad lng %q", line, row[2])
		}

		rec := IntersectionRecord{OSMNodeID: nodeID, Lat: lat, Lng: lng}
		if len(row) > 3 {
			rec.Name = row[3]
		}
		records = append(records, rec)
	}
	return records, nil
}

// ImportIntersections tags each record with its region, upserts the rows in
// batches, and refreshes the geography column. Records outside the bounds are
// dropped. sample_group is the node id modulo four so the quarters are
// deterministic across re-imports.
func ImportIntersections(db *gorm.DB, records []IntersectionRecord, bounds Bounds) (int, error) {
	var rows []gormModels.Intersection
	skipped := 0
	for _, rec := range records {
		if !bounds.Contains(rec.Lat, rec.Lng) {
			skipped++
			continue
		}
		row := gormModels.Intersection{
			OSMNodeID:   rec.OSMNodeID,
			Lat:         rec.Lat,
			Lng:         rec.Lng,
			Borough:     Region(rec.Lat, rec.Lng),
			SampleGroup: int(rec.OSMNodeID % 4),
		}
		if rec.Name != "" {
			name := rec.Name
			row.Name = &name
		}
		rows = append(rows, row)
	}
	if skipped > 0 {
		logging.Info("skipped out-of-bounds intersections", "count", skipped)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "osm_node_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"lat", "lng", "borough", "sample_group",
		}),
	}).CreateInBatches(rows, upsertBatchSize).Error
	if err != nil {
		return 0, fmt.Errorf("upsert intersections: %w", err)
	}

	if err := refreshIntersectionGeom(db); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// refreshIntersectionGeom rebuilds the geography column from lat/lng.
func refreshIntersectionGeom(db *gorm.DB) error {
	return db.Exec(
		`UPDATE intersections
		SET geom = ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography
		WHERE geom IS NULL
			OR ST_X(geom::geometry) <> lng OR ST_Y(geom::geometry) <> lat`,
	).Error
}
