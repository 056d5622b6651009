package gorm

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Intersection{}, &TransitStop{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestIntersectionUpsertOnNodeID(t *testing.T) {
	db := openTestDB(t)

	first := Intersection{OSMNodeID: 1234567, Lat: 40.75, Lng: -73.98, Borough: "Manhattan", SampleGroup: 3}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// A re-import of the same node must update in place, not duplicate.
	update := Intersection{OSMNodeID: 1234567, Lat: 40.76, Lng: -73.99, Borough: "Manhattan", SampleGroup: 3}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "osm_node_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lat", "lng", "borough", "sample_group"}),
	}).Create(&update).Error
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	var count int64
	db.Model(&Intersection{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 row after re-import, got %d", count)
	}

	var got Intersection
	if err := db.Where("osm_node_id = ?", 1234567).First(&got).Error; err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Lat != 40.76 {
		t.Errorf("lat = %f, want the updated value", got.Lat)
	}
}

func TestTransitStopUpsertOnGTFSID(t *testing.T) {
	db := openTestDB(t)

	stop := TransitStop{GTFSStopID: "MTA_127", StopName: "Times Sq-42 St", Lat: 40.755, Lng: -73.987, StopType: "subway", Agency: "MTA"}
	if err := db.Create(&stop).Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	renamed := TransitStop{GTFSStopID: "MTA_127", StopName: "Times Square", Lat: 40.755, Lng: -73.987, StopType: "subway", Agency: "MTA"}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gtfs_stop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stop_name", "lat", "lng", "stop_type", "agency"}),
	}).Create(&renamed).Error
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	var count int64
	db.Model(&TransitStop{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 row after re-import, got %d", count)
	}

	var got TransitStop
	if err := db.Where("gtfs_stop_id = ?", "MTA_127").First(&got).Error; err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.StopName != "Times Square" {
		t.Errorf("stop name = %q, want the updated value", got.StopName)
	}
}

func TestNilNameStaysNull(t *testing.T) {
	db := openTestDB(t)

	if err := db.Create(&Intersection{OSMNodeID: 1, Lat: 40.7, Lng: -74.0, Borough: "Manhattan"}).Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	var got Intersection
	if err := db.First(&got).Error; err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Name != nil {
		t.Errorf("name = %v, want nil", *got.Name)
	}
}
