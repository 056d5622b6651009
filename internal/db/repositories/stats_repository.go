package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/entities"
)

type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db}
}

// ModeSummaries aggregates band counts and freshness per mode.
func (r *StatsRepository) ModeSummaries(ctx context.Context) ([]entities.ModeSummary, error) {
	var out []entities.ModeSummary
	err := r.db.SelectContext(ctx, &out, constants.ModeSummaries)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Bounds is the bounding box of every stored band geometry.
type Bounds struct {
	MinLng float64 `db:"min_lng" json:"min_lng"`
	MinLat float64 `db:"min_lat" json:"min_lat"`
	MaxLng float64 `db:"max_lng" json:"max_lng"`
	MaxLat float64 `db:"max_lat" json:"max_lat"`
}

// CachedBounds returns the extent of the cache, or nil when no bands exist.
func (r *StatsRepository) CachedBounds(ctx context.Context) (*Bounds, error) {
	var bounds Bounds
	err := r.db.QueryRowxContext(ctx, constants.CachedBounds).StructScan(&bounds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bounds, nil
}
