package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/entities"
)

type IntersectionRepository struct {
	db *sqlx.DB
}

func NewIntersectionRepository(db *sqlx.DB) *IntersectionRepository {
	return &IntersectionRepository{db}
}

// Viewport is a lat/lng bounding box.
type Viewport struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// InViewport lists origins inside the box with their computed flag for the
// cache key. sampleGroup < 0 means every group; otherwise only the matching
// deterministic quarter is returned.
func (r *IntersectionRepository) InViewport(
	ctx context.Context,
	vp Viewport,
	key entities.CacheKey,
	sampleGroup int,
	limit int,
) ([]entities.Intersection, error) {
	var out []entities.Intersection
	var err error

	if sampleGroup < 0 {
		err = r.db.SelectContext(ctx, &out, constants.IntersectionsInViewport,
			vp.MinLat, vp.MaxLat, vp.MinLng, vp.MaxLng,
			key.Mode, key.DepartureTime, key.DayType, limit)
	} else {
		err = r.db.SelectContext(ctx, &out, constants.IntersectionsInViewportSampled,
			vp.MinLat, vp.MaxLat, vp.MinLng, vp.MaxLng,
			key.Mode, key.DepartureTime, key.DayType, sampleGroup, limit)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one origin.
func (r *IntersectionRepository) GetByID(ctx context.Context, id int64) (*entities.Intersection, error) {
	var intersection entities.Intersection
	err := r.db.QueryRowxContext(ctx,
		`SELECT id, osm_node_id, name, lat, lng, borough, sample_group
		FROM intersections WHERE id = $1`, id).StructScan(&intersection)
	if err != nil {
		return nil, err
	}
	return &intersection, nil
}

// Total counts every origin.
func (r *IntersectionRepository) Total(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, constants.TotalIntersections)
	return count, err
}
