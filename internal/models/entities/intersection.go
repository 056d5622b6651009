package entities

import "database/sql"

// Intersection is one street-intersection origin. Rows are written only by
// the ingest command (a re-import updates them in place); the API and batch
// paths never modify them.
type Intersection struct {
	ID          int64          `db:"id" json:"id"`
	OSMNodeID   int64          `db:"osm_node_id" json:"osm_node_id"`
	Name        sql.NullString `db:"name" json:"-"`
	Lat         float64        `db:"lat" json:"lat"`
	Lng         float64        `db:"lng" json:"lng"`
	Borough     string         `db:"borough" json:"borough"`
	SampleGroup int            `db:"sample_group" json:"sample_group"`
	IsComputed  bool           `db:"is_computed" json:"is_computed"`
}

// DisplayName returns the intersection name or an empty string.
func (i Intersection) DisplayName() string {
	if i.Name.Valid {
		return i.Name.String
	}
	return ""
}
