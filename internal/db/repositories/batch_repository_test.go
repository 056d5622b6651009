package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"howfar/backend/internal/constants"
)

func TestGetPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRepository(db)

	regions := []string{"Manhattan", "Brooklyn", "Queens", "Bronx", "Staten Island"}
	rows := sqlmock.NewRows([]string{"id", "osm_node_id", "name", "lat", "lng", "borough"}).
		AddRow(1, 111, nil, 40.75, -73.98, "Manhattan").
		AddRow(2, 222, nil, 40.68, -73.95, "Brooklyn")
	mock.ExpectQuery(regexp.QuoteMeta(constants.GetPendingIntersections)).
		WithArgs(repoKey.Mode, repoKey.DepartureTime, repoKey.DayType,
			pq.Array(regions), "240 seconds", 500).
		WillReturnRows(rows)

	pending, err := repo.GetPending(context.Background(), repoKey, regions, 4*time.Minute, 500)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Manhattan", pending[0].Borough)
	assert.Equal(t, int64(2), pending[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPendingEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(constants.GetPendingIntersections)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "osm_node_id", "name", "lat", "lng", "borough"}))

	pending, err := repo.GetPending(context.Background(), repoKey, nil, time.Minute, 100)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMarkProcessing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(constants.MarkProcessing)).
		WithArgs(int64(42), repoKey.Mode, repoKey.DepartureTime, repoKey.DayType).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkProcessing(context.Background(), 42, repoKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(constants.MarkCompleted)).
		WithArgs(int64(42), repoKey.Mode, repoKey.DepartureTime, repoKey.DayType).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkCompleted(context.Background(), 42, repoKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(constants.MarkFailed)).
		WithArgs(int64(42), repoKey.Mode, repoKey.DepartureTime, repoKey.DayType,
			"Empty isochrone - no reachable area").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), 42, repoKey, "Empty isochrone - no reachable area")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetFailed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(constants.ResetFailed)).
		WithArgs(repoKey.Mode, repoKey.DepartureTime, repoKey.DayType).
		WillReturnResult(sqlmock.NewResult(0, 17))

	count, err := repo.ResetFailed(context.Background(), repoKey)
	require.NoError(t, err)
	assert.Equal(t, int64(17), count)
}

func TestStatusCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("completed", 1200).
		AddRow("pending", 300).
		AddRow("failed", 12)
	mock.ExpectQuery(regexp.QuoteMeta(constants.StatusCounts)).
		WithArgs(repoKey.Mode, repoKey.DepartureTime, repoKey.DayType).
		WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background(), repoKey)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, "completed", counts[0].Status)
	assert.Equal(t, int64(1200), counts[0].Count)
}

func TestCachedOriginCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(constants.CachedOriginCount)).
		WithArgs(repoKey.Mode, repoKey.DepartureTime, repoKey.DayType).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(987))

	count, err := repo.CachedOriginCount(context.Background(), repoKey)
	require.NoError(t, err)
	assert.Equal(t, int64(987), count)
}
