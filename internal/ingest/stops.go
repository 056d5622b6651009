package ingest

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"howfar/backend/internal/logging"
	gormModels "howfar/backend/internal/models/gorm"
)

// AgencyInfo names the operator behind one GTFS feed file.
type AgencyInfo struct {
	Name     string
	StopType string
}

// AgencyMap maps GTFS feed base names to their agency and stop type. Feeds
// not listed here import as Unknown/other.
var AgencyMap = map[string]AgencyInfo{
	"mta-subway":            {"MTA", "subway"},
	"mta-bus-bronx":         {"MTA", "bus"},
	"mta-bus-brooklyn":      {"MTA", "bus"},
	"mta-bus-manhattan":     {"MTA", "bus"},
	"mta-bus-queens":        {"MTA", "bus"},
	"mta-bus-staten-island": {"MTA", "bus"},
	"mta-bus-company":       {"MTA", "bus"},
	"lirr":                  {"LIRR", "rail"},
	"metro-north":           {"Metro-North", "rail"},
	"nj-transit":            {"NJ Transit", "rail"},
	"nj-transit-rail":       {"NJ Transit", "rail"},
	"nj-transit-bus":        {"NJ Transit", "bus"},
	"path":                  {"PATH", "subway"},
	"nyc-ferry":             {"NYC Ferry", "ferry"},
	"amtrak":                {"Amtrak", "rail"},
	"ct-transit":            {"CT Transit", "bus"},
	"septa-bus":             {"SEPTA", "bus"},
	"septa-rail":            {"SEPTA", "rail"},
}

// FeedBaseName strips the .gtfs.zip / .zip suffix from a feed file name.
func FeedBaseName(filename string) string {
	name := strings.TrimSuffix(filename, ".zip")
	return strings.TrimSuffix(name, ".gtfs")
}

// ReadStopsFromGTFS reads stops.txt out of one GTFS zip. Stops without
// usable coordinates are skipped. The stored id is <agency>_<stop_id> so
// feeds with colliding stop ids coexist.
func ReadStopsFromGTFS(path string, agency AgencyInfo) ([]gormModels.TransitStop, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var stopsFile *zip.File
	for _, f := range zr.File {
		if f.Name == "stops.txt" {
			stopsFile = f
			break
		}
	}
	if stopsFile == nil {
		return nil, fmt.Errorf("%s: no stops.txt in feed", path)
	}

	rc, err := stopsFile.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: reading stops.txt header: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var stops []gormModels.TransitStop
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: reading stops.txt: %w", path, err)
		}

		lat, errLat := strconv.ParseFloat(field(row, "stop_lat"), 64)
		lng, errLng := strconv.ParseFloat(field(row, "stop_lon"), 64)
		if errLat != nil || errLng != nil || lat == 0 || lng == 0 {
			continue
		}

		stopID := field(row, "stop_id")
		if stopID == "" {
			continue
		}
		name := field(row, "stop_name")
		if name == "" {
			name = "Unknown"
		}

		stops = append(stops, gormModels.TransitStop{
			GTFSStopID: fmt.Sprintf("%s_%s", agency.Name, stopID),
			StopName:   name,
			Lat:        lat,
			Lng:        lng,
			StopType:   agency.StopType,
			Agency:     agency.Name,
		})
	}
	return stops, nil
}

// ImportStops walks a directory of GTFS zips, imports every feed, refreshes
// the geography column, and returns the total row count written.
func ImportStops(db *gorm.DB, gtfsDir string) (int, error) {
	entries, err := os.ReadDir(gtfsDir)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}

		agency, ok := AgencyMap[FeedBaseName(entry.Name())]
		if !ok {
			agency = AgencyInfo{Name: "Unknown", StopType: "other"}
		}

		feedPath := filepath.Join(gtfsDir, entry.Name())
		stops, err := ReadStopsFromGTFS(feedPath, agency)
		if err != nil {
			logging.Warn("skipping unreadable GTFS feed", "feed", entry.Name(), "error", err)
			continue
		}
		if len(stops) == 0 {
			logging.Warn("GTFS feed has no usable stops", "feed", entry.Name())
			continue
		}

		err = db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "gtfs_stop_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"stop_name", "lat", "lng", "stop_type", "agency",
			}),
		}).CreateInBatches(stops, upsertBatchSize).Error
		if err != nil {
			return total, fmt.Errorf("upsert stops from %s: %w", entry.Name(), err)
		}

		logging.Info("imported GTFS feed",
			"feed", entry.Name(), "agency", agency.Name, "stops", len(stops))
		total += len(stops)
	}

	if err := refreshStopGeom(db); err != nil {
		return total, err
	}
	return total, nil
}

func refreshStopGeom(db *gorm.DB) error {
	return db.Exec(
		`UPDATE transit_stops
		SET geom = ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography
		WHERE geom IS NULL
			OR ST_X(geom::geometry) <> lng OR ST_Y(geom::geometry) <> lat`,
	).Error
}
