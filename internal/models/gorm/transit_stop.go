package gorm

// TransitStop is the ingest-side record for one GTFS stop.
type TransitStop struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement"`
	GTFSStopID string  `gorm:"column:gtfs_stop_id;type:text;not null;uniqueIndex"`
	StopName   string  `gorm:"column:stop_name;type:text;not null"`
	Lat        float64 `gorm:"column:lat;not null"`
	Lng        float64 `gorm:"column:lng;not null"`
	StopType   string  `gorm:"column:stop_type;type:text;not null"`
	Agency     string  `gorm:"column:agency;type:text;not null"`
}

// TableName specifies the table name for GORM
func (TransitStop) TableName() string {
	return "transit_stops"
}
