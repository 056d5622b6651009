package api

import (
	"context"

	"howfar/backend/internal/common"
	"howfar/backend/internal/db/repositories"
	"howfar/backend/internal/metrics"
	"howfar/backend/internal/models/dtos"
	"howfar/backend/internal/models/entities"
)

// IsochroneReader is the slice of the cache store the click and isochrone
// endpoints read through.
type IsochroneReader interface {
	NearestWithIsochrone(ctx context.Context, lat, lng float64, key entities.CacheKey) (*entities.Intersection, dtos.BandSet, error)
	NearestWithBothModes(ctx context.Context, lat, lng float64, departureTime, dayType string) (*entities.Intersection, error)
	GetCachedIsochrone(ctx context.Context, originID int64, key entities.CacheKey) (dtos.BandSet, error)
}

// IntersectionReader serves viewport and id lookups.
type IntersectionReader interface {
	InViewport(ctx context.Context, vp repositories.Viewport, key entities.CacheKey, sampleGroup, limit int) ([]entities.Intersection, error)
	GetByID(ctx context.Context, id int64) (*entities.Intersection, error)
	Total(ctx context.Context) (int64, error)
}

// StopReader serves transit stop lookups.
type StopReader interface {
	InViewport(ctx context.Context, vp repositories.Viewport, limit int) ([]entities.TransitStop, error)
	Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]entities.TransitStop, error)
}

// StatsReader serves the aggregate endpoints.
type StatsReader interface {
	ModeSummaries(ctx context.Context) ([]entities.ModeSummary, error)
	CachedBounds(ctx context.Context) (*repositories.Bounds, error)
}

// BatchReader exposes the queue counters to the stats endpoint.
type BatchReader interface {
	StatusCounts(ctx context.Context, key entities.CacheKey) ([]entities.StatusCount, error)
	CachedOriginCount(ctx context.Context, key entities.CacheKey) (int64, error)
}

// Handlers bundles every read endpoint with its dependencies.
type Handlers struct {
	Isochrones    IsochroneReader
	Intersections IntersectionReader
	Stops         StopReader
	Stats         StatsReader
	Batch         BatchReader
	Cache         common.CacheInterface
	Metrics       *metrics.MetricsRegistry
}

func NewHandlers(
	isochrones IsochroneReader,
	intersections IntersectionReader,
	stops StopReader,
	stats StatsReader,
	batch BatchReader,
	cache common.CacheInterface,
	metricsReg *metrics.MetricsRegistry,
) *Handlers {
	return &Handlers{
		Isochrones:    isochrones,
		Intersections: intersections,
		Stops:         stops,
		Stats:         stats,
		Batch:         batch,
		Cache:         cache,
		Metrics:       metricsReg,
	}
}
