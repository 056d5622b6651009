package entities

import (
	"database/sql"
	"time"
)

// BatchStatus is one work-queue row: the computation state of one origin
// under one cache key. An absent row is equivalent to pending.
type BatchStatus struct {
	IntersectionID int64          `db:"intersection_id"`
	Mode           string         `db:"mode"`
	DepartureTime  string         `db:"departure_time"`
	DayType        string         `db:"day_type"`
	Status         string         `db:"status"`
	StartedAt      sql.NullTime   `db:"started_at"`
	CompletedAt    sql.NullTime   `db:"completed_at"`
	ErrorMessage   sql.NullString `db:"error_message"`
}

// ModeSummary aggregates band rows for one mode.
type ModeSummary struct {
	Mode      string    `db:"mode" json:"mode"`
	BandCount int64     `db:"band_count" json:"band_count"`
	Oldest    time.Time `db:"oldest" json:"oldest"`
	Newest    time.Time `db:"newest" json:"newest"`
}

// StatusCount is one row of the per-status counters for a cache key.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int64  `db:"count" json:"count"`
}
