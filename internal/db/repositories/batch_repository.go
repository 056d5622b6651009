package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/models/entities"
)

type BatchRepository struct {
	db *sqlx.DB
}

func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db}
}

// GetPending selects up to limit origins still owed bands under the cache
// key, ordered by region priority then id. Rows stuck in processing longer
// than staleHorizon are selectable again, as are completed rows whose band
// count fell short of a full set.
func (r *BatchRepository) GetPending(
	ctx context.Context,
	key entities.CacheKey,
	priorityRegions []string,
	staleHorizon time.Duration,
	limit int,
) ([]entities.Intersection, error) {
	horizon := fmt.Sprintf("%d seconds", int(staleHorizon.Seconds()))

	var out []entities.Intersection
	err := r.db.SelectContext(ctx, &out, constants.GetPendingIntersections,
		key.Mode, key.DepartureTime, key.DayType,
		pq.Array(priorityRegions), horizon, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkProcessing stamps the queue row as claimed by a worker.
func (r *BatchRepository) MarkProcessing(ctx context.Context, intersectionID int64, key entities.CacheKey) error {
	_, err := r.db.ExecContext(ctx, constants.MarkProcessing,
		intersectionID, key.Mode, key.DepartureTime, key.DayType)
	return err
}

// MarkCompleted stamps the queue row as done and clears any prior error.
func (r *BatchRepository) MarkCompleted(ctx context.Context, intersectionID int64, key entities.CacheKey) error {
	_, err := r.db.ExecContext(ctx, constants.MarkCompleted,
		intersectionID, key.Mode, key.DepartureTime, key.DayType)
	return err
}

// MarkFailed records the failure reason for the operator.
func (r *BatchRepository) MarkFailed(ctx context.Context, intersectionID int64, key entities.CacheKey, reason string) error {
	_, err := r.db.ExecContext(ctx, constants.MarkFailed,
		intersectionID, key.Mode, key.DepartureTime, key.DayType, reason)
	return err
}

// ResetFailed re-queues every failed row for the cache key and returns the
// number of rows reset.
func (r *BatchRepository) ResetFailed(ctx context.Context, key entities.CacheKey) (int64, error) {
	res, err := r.db.ExecContext(ctx, constants.ResetFailed,
		key.Mode, key.DepartureTime, key.DayType)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StatusCounts returns per-status queue row counts for the cache key.
func (r *BatchRepository) StatusCounts(ctx context.Context, key entities.CacheKey) ([]entities.StatusCount, error) {
	var out []entities.StatusCount
	err := r.db.SelectContext(ctx, &out, constants.StatusCounts,
		key.Mode, key.DepartureTime, key.DayType)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CachedOriginCount counts origins with at least one band under the key.
func (r *BatchRepository) CachedOriginCount(ctx context.Context, key entities.CacheKey) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, constants.CachedOriginCount,
		key.Mode, key.DepartureTime, key.DayType)
	return count, err
}
