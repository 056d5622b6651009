package constants

// The repositories' SQL lives here, apart from two single-table lookups
// written inline (IntersectionRepository.GetByID and
// IsochroneRepository.HasCachedIsochrone). Geometry in/out is GeoJSON;
// clipping and simplification happen inside PostGIS.

const (
	// SaveIsochroneBand upserts one cutoff band. The stored geometry is the
	// land-clipped input; when the intersection with the land boundary is
	// NULL or empty the raw input is stored instead. geometry_unclipped
	// always keeps the raw input.
	SaveIsochroneBand = `
	WITH land AS (
		SELECT geometry AS g FROM land_boundary LIMIT 1
	), input AS (
		SELECT ST_SetSRID(ST_GeomFromGeoJSON($6), 4326) AS g
	), clipped AS (
		SELECT ST_CollectionExtract(ST_MakeValid(ST_Intersection(input.g, land.g)), 3) AS g
		FROM input, land
	)
	INSERT INTO isochrone_bands
		(origin_id, mode, departure_time, day_type, cutoff_minutes, geometry, geometry_unclipped, computed_at)
	SELECT $1, $2, $3, $4, $5,
		CASE WHEN clipped.g IS NULL OR ST_IsEmpty(clipped.g) THEN input.g ELSE clipped.g END,
		input.g,
		now()
	FROM input LEFT JOIN clipped ON TRUE
	ON CONFLICT (origin_id, mode, departure_time, day_type, cutoff_minutes)
	DO UPDATE SET
		geometry = EXCLUDED.geometry,
		geometry_unclipped = EXCLUDED.geometry_unclipped,
		computed_at = EXCLUDED.computed_at
	`

	// CachedIsochrone returns every band for one origin and cache key,
	// simplified to roughly 11 m before serialisation.
	CachedIsochrone = `
	SELECT cutoff_minutes, ST_AsGeoJSON(ST_Simplify(geometry, 0.0001)) AS geojson
	FROM isochrone_bands
	WHERE origin_id = $1 AND mode = $2 AND departure_time = $3 AND day_type = $4
	ORDER BY cutoff_minutes
	`

	// NearestWithIsochrone picks the nearest origin (geodesic distance) that
	// has any band under the cache key and pivots its bands into columns.
	NearestWithIsochrone = `
	SELECT i.id, i.osm_node_id, i.name, i.lat, i.lng, i.borough,
		MAX(CASE WHEN b.cutoff_minutes = 15  THEN ST_AsGeoJSON(ST_Simplify(b.geometry, 0.0001)) END) AS iso_15,
		MAX(CASE WHEN b.cutoff_minutes = 30  THEN ST_AsGeoJSON(ST_Simplify(b.geometry, 0.0001)) END) AS iso_30,
		MAX(CASE WHEN b.cutoff_minutes = 45  THEN ST_AsGeoJSON(ST_Simplify(b.geometry, 0.0001)) END) AS iso_45,
		MAX(CASE WHEN b.cutoff_minutes = 60  THEN ST_AsGeoJSON(ST_Simplify(b.geometry, 0.0001)) END) AS iso_60,
		MAX(CASE WHEN b.cutoff_minutes = 90  THEN ST_AsGeoJSON(ST_Simplify(b.geometry, 0.0001)) END) AS iso_90,
		MAX(CASE WHEN b.cutoff_minutes = 120 THEN ST_AsGeoJSON(ST_Simplify(b.geometry, 0.0001)) END) AS iso_120,
		MAX(CASE WHEN b.cutoff_minutes = 150 THEN ST_AsGeoJSON(ST_Simplify(b.geometry, 0.0001)) END) AS iso_150,
		MAX(CASE WHEN b.cutoff_minutes = 180 THEN ST_AsGeoJSON(ST_Simplify(b.geometry, 0.0001)) END) AS iso_180
	FROM intersections i
	JOIN isochrone_bands b
		ON b.origin_id = i.id AND b.mode = $3 AND b.departure_time = $4 AND b.day_type = $5
	GROUP BY i.id, i.osm_node_id, i.name, i.lat, i.lng, i.borough, i.geom
	ORDER BY ST_Distance(i.geom, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography)
	LIMIT 1
	`

	// NearestWithBothModes picks the nearest origin carrying bands under both
	// transit and bike for the given departure and day type.
	NearestWithBothModes = `
	SELECT i.id, i.osm_node_id, i.name, i.lat, i.lng, i.borough
	FROM intersections i
	WHERE EXISTS (
		SELECT 1 FROM isochrone_bands b
		WHERE b.origin_id = i.id AND b.mode = 'transit' AND b.departure_time = $3 AND b.day_type = $4
	) AND EXISTS (
		SELECT 1 FROM isochrone_bands b
		WHERE b.origin_id = i.id AND b.mode = 'bike' AND b.departure_time = $3 AND b.day_type = $4
	)
	ORDER BY ST_Distance(i.geom, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography)
	LIMIT 1
	`

	// IntersectionsInViewport lists origins inside a bounding box with a flag
	// for whether the 30-minute band exists under the cache key.
	IntersectionsInViewport = `
	SELECT i.id, i.osm_node_id, i.name, i.lat, i.lng, i.borough, i.sample_group,
		EXISTS (
			SELECT 1 FROM isochrone_bands b
			WHERE b.origin_id = i.id AND b.mode = $5 AND b.departure_time = $6
				AND b.day_type = $7 AND b.cutoff_minutes = 30
		) AS is_computed
	FROM intersections i
	WHERE i.lat BETWEEN $1 AND $2 AND i.lng BETWEEN $3 AND $4
	ORDER BY i.id
	LIMIT $8
	`

	// IntersectionsInViewportSampled is the same restricted to one sample
	// group, a deterministic quarter of the origins.
	IntersectionsInViewportSampled = `
	SELECT i.id, i.osm_node_id, i.name, i.lat, i.lng, i.borough, i.sample_group,
		EXISTS (
			SELECT 1 FROM isochrone_bands b
			WHERE b.origin_id = i.id AND b.mode = $5 AND b.departure_time = $6
				AND b.day_type = $7 AND b.cutoff_minutes = 30
		) AS is_computed
	FROM intersections i
	WHERE i.lat BETWEEN $1 AND $2 AND i.lng BETWEEN $3 AND $4
		AND i.sample_group = $8
	ORDER BY i.id
	LIMIT $9
	`

	// GetPendingIntersections selects up to one batch of origins still owed
	// bands under the cache key, densest boroughs first. A processing row
	// older than the stale horizon counts as pending again.
	GetPendingIntersections = `
	SELECT i.id, i.osm_node_id, i.name, i.lat, i.lng, i.borough, i.sample_group
	FROM intersections i
	LEFT JOIN batch_status bs
		ON bs.intersection_id = i.id AND bs.mode = $1
		AND bs.departure_time = $2 AND bs.day_type = $3
	WHERE i.borough = ANY($4)
		AND (
			bs.status IS NULL
			OR (
				(bs.status IN ('pending', 'completed')
					OR (bs.status = 'processing' AND bs.started_at < now() - $5::interval))
				AND (
					SELECT count(*) FROM isochrone_bands b
					WHERE b.origin_id = i.id AND b.mode = $1
						AND b.departure_time = $2 AND b.day_type = $3
				) < 8
			)
		)
	ORDER BY array_position($4, i.borough), i.id
	LIMIT $6
	`

	// MarkProcessing moves a cache key's queue row to processing and stamps
	// started_at.
	MarkProcessing = `
	INSERT INTO batch_status (intersection_id, mode, departure_time, day_type, status, started_at)
	VALUES ($1, $2, $3, $4, 'processing', now())
	ON CONFLICT (intersection_id, mode, departure_time, day_type)
	DO UPDATE SET status = 'processing', started_at = now(), completed_at = NULL, error_message = NULL
	`

	// MarkCompleted stamps completed_at and clears any prior error.
	MarkCompleted = `
	INSERT INTO batch_status (intersection_id, mode, departure_time, day_type, status, completed_at)
	VALUES ($1, $2, $3, $4, 'completed', now())
	ON CONFLICT (intersection_id, mode, departure_time, day_type)
	DO UPDATE SET status = 'completed', completed_at = now(), error_message = NULL
	`

	// MarkFailed records the stringified error for the operator.
	MarkFailed = `
	INSERT INTO batch_status (intersection_id, mode, departure_time, day_type, status, completed_at, error_message)
	VALUES ($1, $2, $3, $4, 'failed', now(), $5)
	ON CONFLICT (intersection_id, mode, departure_time, day_type)
	DO UPDATE SET status = 'failed', completed_at = now(), error_message = $5
	`

	// ResetFailed is the operator action that re-queues every failed row for
	// a cache key.
	ResetFailed = `
	UPDATE batch_status
	SET status = 'pending', error_message = NULL, started_at = NULL, completed_at = NULL
	WHERE mode = $1 AND departure_time = $2 AND day_type = $3 AND status = 'failed'
	`

	// StatusCounts groups queue rows by status for one cache key.
	StatusCounts = `
	SELECT status, count(*) AS count
	FROM batch_status
	WHERE mode = $1 AND departure_time = $2 AND day_type = $3
	GROUP BY status
	`

	// CachedOriginCount counts origins with at least one band under the key.
	CachedOriginCount = `
	SELECT count(DISTINCT origin_id)
	FROM isochrone_bands
	WHERE mode = $1 AND departure_time = $2 AND day_type = $3
	`

	// TotalIntersections counts every origin.
	TotalIntersections = `SELECT count(*) FROM intersections`

	// ModeSummaries aggregates band rows per mode.
	ModeSummaries = `
	SELECT mode, count(*) AS band_count,
		min(computed_at) AS oldest, max(computed_at) AS newest
	FROM isochrone_bands
	GROUP BY mode
	ORDER BY mode
	`

	// CachedBounds is the bounding box of every stored band geometry.
	CachedBounds = `
	SELECT ST_XMin(ext) AS min_lng, ST_YMin(ext) AS min_lat,
		ST_XMax(ext) AS max_lng, ST_YMax(ext) AS max_lat
	FROM (SELECT ST_Extent(geometry) AS ext FROM isochrone_bands) s
	WHERE ext IS NOT NULL
	`

	// TransitStopsInViewport lists stops inside a bounding box.
	TransitStopsInViewport = `
	SELECT id, gtfs_stop_id, stop_name, lat, lng, stop_type, agency
	FROM transit_stops
	WHERE lat BETWEEN $1 AND $2 AND lng BETWEEN $3 AND $4
	ORDER BY id
	LIMIT $5
	`

	// TransitStopsNearby combines a lat/lng window pre-filter with an exact
	// geodesic radius predicate.
	TransitStopsNearby = `
	SELECT id, gtfs_stop_id, stop_name, lat, lng, stop_type, agency
	FROM transit_stops
	WHERE lat BETWEEN $4 AND $5 AND lng BETWEEN $6 AND $7
		AND ST_DWithin(geom, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
	ORDER BY ST_Distance(geom, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography)
	LIMIT $8
	`
)
