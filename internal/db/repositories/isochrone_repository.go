package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/dtos"
	"howfar/backend/internal/models/entities"
)

type IsochroneRepository struct {
	db *sqlx.DB
}

func NewIsochroneRepository(db *sqlx.DB) *IsochroneRepository {
	return &IsochroneRepository{db}
}

// SaveIsochrone stores every cutoff band for one origin and cache key in a
// single transaction. Geometries are clipped to the land boundary inside the
// database; the unclipped input is kept alongside.
func (r *IsochroneRepository) SaveIsochrone(
	ctx context.Context,
	originID int64,
	key entities.CacheKey,
	bands map[int]json.RawMessage,
) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for cutoff, geometry := range bands {
		if _, err := tx.ExecContext(
			ctx,
			constants.SaveIsochroneBand,
			originID,
			key.Mode,
			key.DepartureTime,
			key.DayType,
			cutoff,
			string(geometry),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type bandRow struct {
	CutoffMinutes int    `db:"cutoff_minutes"`
	GeoJSON       string `db:"geojson"`
}

// GetCachedIsochrone returns the stored bands for one origin and cache key,
// keyed by response band name. An origin with no bands yields an empty set.
func (r *IsochroneRepository) GetCachedIsochrone(
	ctx context.Context,
	originID int64,
	key entities.CacheKey,
) (dtos.BandSet, error) {
	var rows []bandRow
	err := r.db.SelectContext(ctx, &rows, constants.CachedIsochrone,
		originID, key.Mode, key.DepartureTime, key.DayType)
	if err != nil {
		return nil, err
	}

	bands := make(dtos.BandSet, len(rows))
	for _, row := range rows {
		bands[dtos.BandKey(row.CutoffMinutes)] = json.RawMessage(row.GeoJSON)
	}
	return bands, nil
}

// HasCachedIsochrone reports whether any band exists for the origin and key.
func (r *IsochroneRepository) HasCachedIsochrone(
	ctx context.Context,
	originID int64,
	key entities.CacheKey,
) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT count(*) FROM isochrone_bands
		WHERE origin_id = $1 AND mode = $2 AND departure_time = $3 AND day_type = $4`,
		originID, key.Mode, key.DepartureTime, key.DayType)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type nearestRow struct {
	ID        int64          `db:"id"`
	OSMNodeID int64          `db:"osm_node_id"`
	Name      sql.NullString `db:"name"`
	Lat       float64        `db:"lat"`
	Lng       float64        `db:"lng"`
	Borough   string         `db:"borough"`
	Iso15     sql.NullString `db:"iso_15"`
	Iso30     sql.NullString `db:"iso_30"`
	Iso45     sql.NullString `db:"iso_45"`
	Iso60     sql.NullString `db:"iso_60"`
	Iso90     sql.NullString `db:"iso_90"`
	Iso120    sql.NullString `db:"iso_120"`
	Iso150    sql.NullString `db:"iso_150"`
	Iso180    sql.NullString `db:"iso_180"`
}

func (row nearestRow) intersection() entities.Intersection {
	return entities.Intersection{
		ID:        row.ID,
		OSMNodeID: row.OSMNodeID,
		Name:      row.Name,
		Lat:       row.Lat,
		Lng:       row.Lng,
		Borough:   row.Borough,
	}
}

func (row nearestRow) bands() dtos.BandSet {
	cols := map[int]sql.NullString{
		15: row.Iso15, 30: row.Iso30, 45: row.Iso45, 60: row.Iso60,
		90: row.Iso90, 120: row.Iso120, 150: row.Iso150, 180: row.Iso180,
	}
	bands := make(dtos.BandSet)
	for cutoff, col := range cols {
		if col.Valid {
			bands[dtos.BandKey(cutoff)] = json.RawMessage(col.String)
		}
	}
	return bands
}

// NearestWithIsochrone finds the closest origin to the point that has any
// cached band under the key, returning its bands pivoted into a set.
// sql.ErrNoRows means nothing is cached for the key at all.
func (r *IsochroneRepository) NearestWithIsochrone(
	ctx context.Context,
	lat, lng float64,
	key entities.CacheKey,
) (*entities.Intersection, dtos.BandSet, error) {
	var row nearestRow
	err := r.db.QueryRowxContext(ctx, constants.NearestWithIsochrone,
		lat, lng, key.Mode, key.DepartureTime, key.DayType).StructScan(&row)
	if err != nil {
		return nil, nil, err
	}

	intersection := row.intersection()
	return &intersection, row.bands(), nil
}

// NearestWithBothModes finds the closest origin carrying cached bands under
// both transit and bike for the given departure and day type.
func (r *IsochroneRepository) NearestWithBothModes(
	ctx context.Context,
	lat, lng float64,
	departureTime, dayType string,
) (*entities.Intersection, error) {
	var intersection entities.Intersection
	err := r.db.QueryRowxContext(ctx, constants.NearestWithBothModes,
		lat, lng, departureTime, dayType).StructScan(&intersection)
	if err != nil {
		return nil, err
	}
	return &intersection, nil
}
