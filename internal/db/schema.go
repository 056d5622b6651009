package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schemaStatements bootstraps the cache store. Every statement is idempotent
// so the server, batch and ingest commands can all run it at startup.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,

	`CREATE TABLE IF NOT EXISTS intersections (
		id BIGSERIAL PRIMARY KEY,
		osm_node_id BIGINT NOT NULL UNIQUE,
		name TEXT,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		borough TEXT NOT NULL,
		sample_group INT NOT NULL DEFAULT 0,
		geom GEOGRAPHY(POINT, 4326)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_intersections_latlng ON intersections (lat, lng)`,
	`CREATE INDEX IF NOT EXISTS idx_intersections_borough ON intersections (borough)`,
	`CREATE INDEX IF NOT EXISTS idx_intersections_geom ON intersections USING GIST (geom)`,

	`CREATE TABLE IF NOT EXISTS isochrone_bands (
		origin_id BIGINT NOT NULL REFERENCES intersections(id) ON DELETE CASCADE,
		mode TEXT NOT NULL,
		departure_time TEXT NOT NULL,
		day_type TEXT NOT NULL,
		cutoff_minutes INT NOT NULL,
		geometry GEOMETRY(GEOMETRY, 4326) NOT NULL,
		geometry_unclipped GEOMETRY(GEOMETRY, 4326),
		computed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (origin_id, mode, departure_time, day_type, cutoff_minutes)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_isochrone_bands_key
		ON isochrone_bands (mode, departure_time, day_type)`,
	`CREATE INDEX IF NOT EXISTS idx_isochrone_bands_geometry
		ON isochrone_bands USING GIST (geometry)`,

	`CREATE TABLE IF NOT EXISTS batch_status (
		intersection_id BIGINT NOT NULL REFERENCES intersections(id) ON DELETE CASCADE,
		mode TEXT NOT NULL,
		departure_time TEXT NOT NULL,
		day_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		error_message TEXT,
		PRIMARY KEY (intersection_id, mode, departure_time, day_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_batch_status_key
		ON batch_status (mode, departure_time, day_type, status)`,

	`CREATE TABLE IF NOT EXISTS transit_stops (
		id BIGSERIAL PRIMARY KEY,
		gtfs_stop_id TEXT NOT NULL UNIQUE,
		stop_name TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		stop_type TEXT NOT NULL,
		agency TEXT NOT NULL,
		geom GEOGRAPHY(POINT, 4326)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transit_stops_latlng ON transit_stops (lat, lng)`,
	`CREATE INDEX IF NOT EXISTS idx_transit_stops_geom ON transit_stops USING GIST (geom)`,

	`CREATE TABLE IF NOT EXISTS land_boundary (
		id INT PRIMARY KEY DEFAULT 1,
		geometry GEOMETRY(GEOMETRY, 4326) NOT NULL
	)`,
}

// EnsureSchema creates the tables and indexes if missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
