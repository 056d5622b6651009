package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/entities"
	"howfar/backend/internal/spatial"
)

type TransitStopRepository struct {
	db *sqlx.DB
}

func NewTransitStopRepository(db *sqlx.DB) *TransitStopRepository {
	return &TransitStopRepository{db}
}

// InViewport lists stops inside the box.
func (r *TransitStopRepository) InViewport(
	ctx context.Context,
	vp Viewport,
	limit int,
) ([]entities.TransitStop, error) {
	var out []entities.TransitStop
	err := r.db.SelectContext(ctx, &out, constants.TransitStopsInViewport,
		vp.MinLat, vp.MaxLat, vp.MinLng, vp.MaxLng, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Nearby lists stops within radiusMeters of the point, nearest first. A
// bounding-box pre-filter keeps the geodesic predicate off the whole table.
func (r *TransitStopRepository) Nearby(
	ctx context.Context,
	lat, lng, radiusMeters float64,
	limit int,
) ([]entities.TransitStop, error) {
	minLat, maxLat, minLng, maxLng := spatial.BoundingBox(lat, lng, radiusMeters)

	var out []entities.TransitStop
	err := r.db.SelectContext(ctx, &out, constants.TransitStopsNearby,
		lat, lng, radiusMeters,
		minLat, maxLat, minLng, maxLng, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}
