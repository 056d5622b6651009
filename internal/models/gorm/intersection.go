package gorm

// Intersection is the ingest-side record for one street-intersection origin.
type Intersection struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	OSMNodeID   int64   `gorm:"column:osm_node_id;not null;uniqueIndex"`
	Name        *string `gorm:"column:name;type:text"`
	Lat         float64 `gorm:"column:lat;not null"`
	Lng         float64 `gorm:"column:lng;not null"`
	Borough     string  `gorm:"column:borough;type:text;not null"`
	SampleGroup int     `gorm:"column:sample_group;not null;default:0"`
}

// TableName specifies the table name for GORM
func (Intersection) TableName() string {
	return "intersections"
}
