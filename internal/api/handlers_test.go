package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"howfar/backend/internal/common"
	"howfar/backend/internal/constants"
	"howfar/backend/internal/db/repositories"
	"howfar/backend/internal/models/dtos"
	"howfar/backend/internal/models/entities"
)

type mockIsochroneReader struct {
	nearestFn func(ctx context.Context, lat, lng float64, key entities.CacheKey) (*entities.Intersection, dtos.BandSet, error)
	bothFn    func(ctx context.Context, lat, lng float64, departureTime, dayType string) (*entities.Intersection, error)
	cachedFn  func(ctx context.Context, originID int64, key entities.CacheKey) (dtos.BandSet, error)
}

func (m *mockIsochroneReader) NearestWithIsochrone(ctx context.Context, lat, lng float64, key entities.CacheKey) (*entities.Intersection, dtos.BandSet, error) {
	return m.nearestFn(ctx, lat, lng, key)
}

func (m *mockIsochroneReader) NearestWithBothModes(ctx context.Context, lat, lng float64, departureTime, dayType string) (*entities.Intersection, error) {
	return m.bothFn(ctx, lat, lng, departureTime, dayType)
}

func (m *mockIsochroneReader) GetCachedIsochrone(ctx context.Context, originID int64, key entities.CacheKey) (dtos.BandSet, error) {
	return m.cachedFn(ctx, originID, key)
}

type mockIntersectionReader struct {
	viewportFn func(ctx context.Context, vp repositories.Viewport, key entities.CacheKey, sampleGroup, limit int) ([]entities.Intersection, error)
	byIDFn     func(ctx context.Context, id int64) (*entities.Intersection, error)
	totalFn    func(ctx context.Context) (int64, error)
}

func (m *mockIntersectionReader) InViewport(ctx context.Context, vp repositories.Viewport, key entities.CacheKey, sampleGroup, limit int) ([]entities.Intersection, error) {
	return m.viewportFn(ctx, vp, key, sampleGroup, limit)
}

func (m *mockIntersectionReader) GetByID(ctx context.Context, id int64) (*entities.Intersection, error) {
	return m.byIDFn(ctx, id)
}

func (m *mockIntersectionReader) Total(ctx context.Context) (int64, error) {
	return m.totalFn(ctx)
}

type mockStopReader struct {
	viewportFn func(ctx context.Context, vp repositories.Viewport, limit int) ([]entities.TransitStop, error)
	nearbyFn   func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]entities.TransitStop, error)
}

func (m *mockStopReader) InViewport(ctx context.Context, vp repositories.Viewport, limit int) ([]entities.TransitStop, error) {
	return m.viewportFn(ctx, vp, limit)
}

func (m *mockStopReader) Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]entities.TransitStop, error) {
	return m.nearbyFn(ctx, lat, lng, radiusMeters, limit)
}

type mockStatsReader struct {
	summariesFn func(ctx context.Context) ([]entities.ModeSummary, error)
	boundsFn    func(ctx context.Context) (*repositories.Bounds, error)
}

func (m *mockStatsReader) ModeSummaries(ctx context.Context) ([]entities.ModeSummary, error) {
	return m.summariesFn(ctx)
}

func (m *mockStatsReader) CachedBounds(ctx context.Context) (*repositories.Bounds, error) {
	return m.boundsFn(ctx)
}

type mockBatchReader struct {
	countsFn func(ctx context.Context, key entities.CacheKey) ([]entities.StatusCount, error)
	cachedFn func(ctx context.Context, key entities.CacheKey) (int64, error)
}

func (m *mockBatchReader) StatusCounts(ctx context.Context, key entities.CacheKey) ([]entities.StatusCount, error) {
	return m.countsFn(ctx, key)
}

func (m *mockBatchReader) CachedOriginCount(ctx context.Context, key entities.CacheKey) (int64, error) {
	return m.cachedFn(ctx, key)
}

func testIntersection() *entities.Intersection {
	return &entities.Intersection{
		ID:        42,
		OSMNodeID: 1234567,
		Name:      sql.NullString{String: "Broadway & W 72 St", Valid: true},
		Lat:       40.778,
		Lng:       -73.982,
		Borough:   "Manhattan",
	}
}

func testBands() dtos.BandSet {
	return dtos.BandSet{
		"isochrone_15m": json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`),
		"isochrone_30m": json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,0]]]}`),
	}
}

func doRequest(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestClickHandlerSingleMode(t *testing.T) {
	var gotKey entities.CacheKey
	h := &Handlers{
		Isochrones: &mockIsochroneReader{
			nearestFn: func(ctx context.Context, lat, lng float64, key entities.CacheKey) (*entities.Intersection, dtos.BandSet, error) {
				gotKey = key
				return testIntersection(), testBands(), nil
			},
		},
	}

	rec := doRequest(h.ClickHandler, "/api/click?lat=40.78&lng=-73.98")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotKey.Mode != constants.ModeTransit || gotKey.DepartureTime != "10:00:00" || gotKey.DayType != constants.DayTypeWeekday {
		t.Errorf("defaults not applied, got %+v", gotKey)
	}

	var resp dtos.ClickResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Intersection.ID != 42 {
		t.Errorf("intersection id = %d, want 42", resp.Intersection.ID)
	}
	if resp.Intersection.Name != "Broadway & W 72 St" {
		t.Errorf("intersection name = %q", resp.Intersection.Name)
	}
	if len(resp.Isochrone) != 2 {
		t.Errorf("expected 2 bands, got %d", len(resp.Isochrone))
	}
	if resp.Source != "cache" {
		t.Errorf("source = %q, want cache", resp.Source)
	}
}

func TestClickHandlerMissingCoords(t *testing.T) {
	h := &Handlers{}
	rec := doRequest(h.ClickHandler, "/api/click?lat=40.78")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestClickHandlerInvalidMode(t *testing.T) {
	h := &Handlers{}
	rec := doRequest(h.ClickHandler, "/api/click?lat=40.78&lng=-73.98&mode=teleport")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestClickHandlerInvalidDayType(t *testing.T) {
	h := &Handlers{}
	rec := doRequest(h.ClickHandler, "/api/click?lat=40.78&lng=-73.98&dayType=holiday")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestClickHandlerNoCacheHit(t *testing.T) {
	h := &Handlers{
		Isochrones: &mockIsochroneReader{
			nearestFn: func(ctx context.Context, lat, lng float64, key entities.CacheKey) (*entities.Intersection, dtos.BandSet, error) {
				return nil, nil, sql.ErrNoRows
			},
		},
	}

	rec := doRequest(h.ClickHandler, "/api/click?lat=40.78&lng=-73.98")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body["error"] != constants.ErrMsgNoCacheHit {
		t.Errorf("error = %q, want %q", body["error"], constants.ErrMsgNoCacheHit)
	}
}

func TestClickHandlerEmptyBandsIs404(t *testing.T) {
	h := &Handlers{
		Isochrones: &mockIsochroneReader{
			nearestFn: func(ctx context.Context, lat, lng float64, key entities.CacheKey) (*entities.Intersection, dtos.BandSet, error) {
				return testIntersection(), dtos.BandSet{}, nil
			},
		},
	}

	rec := doRequest(h.ClickHandler, "/api/click?lat=40.78&lng=-73.98")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestClickHandlerCompare(t *testing.T) {
	var cachedKeys []entities.CacheKey
	h := &Handlers{
		Isochrones: &mockIsochroneReader{
			bothFn: func(ctx context.Context, lat, lng float64, departureTime, dayType string) (*entities.Intersection, error) {
				return testIntersection(), nil
			},
			cachedFn: func(ctx context.Context, originID int64, key entities.CacheKey) (dtos.BandSet, error) {
				cachedKeys = append(cachedKeys, key)
				return testBands(), nil
			},
		},
	}

	rec := doRequest(h.ClickHandler, "/api/click?lat=40.78&lng=-73.98&mode=compare")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	if len(cachedKeys) != 2 {
		t.Fatalf("expected band lookups for both modes, got %v", cachedKeys)
	}
	if cachedKeys[0].Mode != constants.ModeTransit || cachedKeys[1].Mode != constants.ModeBike {
		t.Errorf("unexpected band lookup order %v", cachedKeys)
	}

	var resp dtos.CompareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Isochrone.Transit) != 2 || len(resp.Isochrone.Bike) != 2 {
		t.Errorf("expected both band sets populated, got %+v", resp.Isochrone)
	}
}

func TestClickHandlerMemoizesResponses(t *testing.T) {
	calls := 0
	h := &Handlers{
		Isochrones: &mockIsochroneReader{
			nearestFn: func(ctx context.Context, lat, lng float64, key entities.CacheKey) (*entities.Intersection, dtos.BandSet, error) {
				calls++
				return testIntersection(), testBands(), nil
			},
		},
		Cache: common.NewCacheService(60, 120),
	}
	defer h.Cache.Close()

	target := "/api/click?lat=40.78&lng=-73.98"
	if rec := doRequest(h.ClickHandler, target); rec.Code != http.StatusOK {
		t.Fatalf("first click failed with %d", rec.Code)
	}
	if rec := doRequest(h.ClickHandler, target); rec.Code != http.StatusOK {
		t.Fatalf("second click failed with %d", rec.Code)
	}
	if calls != 1 {
		t.Errorf("expected 1 store lookup, got %d", calls)
	}
}

func isochroneByIDRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/isochrone/{id}", h.IsochroneByIDHandler)
	return r
}

func TestIsochroneByIDHandler(t *testing.T) {
	h := &Handlers{
		Intersections: &mockIntersectionReader{
			byIDFn: func(ctx context.Context, id int64) (*entities.Intersection, error) {
				return testIntersection(), nil
			},
		},
		Isochrones: &mockIsochroneReader{
			cachedFn: func(ctx context.Context, originID int64, key entities.CacheKey) (dtos.BandSet, error) {
				if originID != 42 {
					t.Errorf("origin id = %d, want 42", originID)
				}
				return testBands(), nil
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/isochrone/42?mode=bike", nil)
	rec := httptest.NewRecorder()
	isochroneByIDRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp dtos.IsochroneResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Isochrone) != 2 {
		t.Errorf("expected 2 bands, got %d", len(resp.Isochrone))
	}
}

func TestIsochroneByIDHandlerBadID(t *testing.T) {
	h := &Handlers{}
	req := httptest.NewRequest(http.MethodGet, "/api/isochrone/forty-two", nil)
	rec := httptest.NewRecorder()
	isochroneByIDRouter(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIsochroneByIDHandlerCompareRejected(t *testing.T) {
	h := &Handlers{}
	req := httptest.NewRequest(http.MethodGet, "/api/isochrone/42?mode=compare", nil)
	rec := httptest.NewRecorder()
	isochroneByIDRouter(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIsochroneByIDHandlerUnknownIntersection(t *testing.T) {
	h := &Handlers{
		Intersections: &mockIntersectionReader{
			byIDFn: func(ctx context.Context, id int64) (*entities.Intersection, error) {
				return nil, sql.ErrNoRows
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/isochrone/999", nil)
	rec := httptest.NewRecorder()
	isochroneByIDRouter(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestViewportHandler(t *testing.T) {
	var gotSampleGroup, gotLimit int
	var gotVp repositories.Viewport
	h := &Handlers{
		Intersections: &mockIntersectionReader{
			viewportFn: func(ctx context.Context, vp repositories.Viewport, key entities.CacheKey, sampleGroup, limit int) ([]entities.Intersection, error) {
				gotVp, gotSampleGroup, gotLimit = vp, sampleGroup, limit
				return []entities.Intersection{*testIntersection()}, nil
			},
		},
	}

	rec := doRequest(h.ViewportHandler,
		"/api/intersections/viewport?minLat=40.7&maxLat=40.8&minLng=-74.1&maxLng=-73.9&sampleGroup=2&limit=100")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotVp.MinLat != 40.7 || gotVp.MaxLng != -73.9 {
		t.Errorf("unexpected viewport %+v", gotVp)
	}
	if gotSampleGroup != 2 || gotLimit != 100 {
		t.Errorf("sampleGroup = %d limit = %d", gotSampleGroup, gotLimit)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestViewportHandlerDefaultsSampleGroup(t *testing.T) {
	var gotSampleGroup int
	h := &Handlers{
		Intersections: &mockIntersectionReader{
			viewportFn: func(ctx context.Context, vp repositories.Viewport, key entities.CacheKey, sampleGroup, limit int) ([]entities.Intersection, error) {
				gotSampleGroup = sampleGroup
				return nil, nil
			},
		},
	}

	rec := doRequest(h.ViewportHandler,
		"/api/intersections/viewport?minLat=40.7&maxLat=40.8&minLng=-74.1&maxLng=-73.9")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotSampleGroup != -1 {
		t.Errorf("sampleGroup = %d, want -1 when absent", gotSampleGroup)
	}
}

func TestViewportHandlerBadSampleGroup(t *testing.T) {
	h := &Handlers{}
	rec := doRequest(h.ViewportHandler,
		"/api/intersections/viewport?minLat=40.7&maxLat=40.8&minLng=-74.1&maxLng=-73.9&sampleGroup=-3")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestViewportHandlerMissingBounds(t *testing.T) {
	h := &Handlers{}
	rec := doRequest(h.ViewportHandler, "/api/intersections/viewport?minLat=40.7")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStopsNearbyHandler(t *testing.T) {
	var gotRadius float64
	h := &Handlers{
		Stops: &mockStopReader{
			nearbyFn: func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]entities.TransitStop, error) {
				gotRadius = radiusMeters
				return nil, nil
			},
		},
	}

	rec := doRequest(h.StopsNearbyHandler, "/api/transit/stops/nearby?lat=40.78&lng=-73.98&radius=250")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotRadius != 250 {
		t.Errorf("radius = %f, want 250", gotRadius)
	}

	var body struct {
		Stops []entities.TransitStop `json:"stops"`
		Count int                    `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Stops == nil {
		t.Error("stops must serialise as an empty array, not null")
	}
}

func TestStopsNearbyHandlerBadRadius(t *testing.T) {
	h := &Handlers{}
	rec := doRequest(h.StopsNearbyHandler, "/api/transit/stops/nearby?lat=40.78&lng=-73.98&radius=-5")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestModesHandler(t *testing.T) {
	h := &Handlers{}
	rec := doRequest(h.ModesHandler, "/api/modes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Modes    []string `json:"modes"`
		DayTypes []string `json:"day_types"`
		Cutoffs  []int    `json:"cutoffs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Modes) != 4 {
		t.Errorf("expected 4 modes, got %v", body.Modes)
	}
	if len(body.Cutoffs) != 8 {
		t.Errorf("expected 8 cutoffs, got %v", body.Cutoffs)
	}
}

func TestStatsHandler(t *testing.T) {
	h := &Handlers{
		Intersections: &mockIntersectionReader{
			totalFn: func(ctx context.Context) (int64, error) { return 4000, nil },
		},
		Batch: &mockBatchReader{
			cachedFn: func(ctx context.Context, key entities.CacheKey) (int64, error) { return 1200, nil },
			countsFn: func(ctx context.Context, key entities.CacheKey) ([]entities.StatusCount, error) {
				return []entities.StatusCount{{Status: "completed", Count: 1200}}, nil
			},
		},
		Stats: &mockStatsReader{
			summariesFn: func(ctx context.Context) ([]entities.ModeSummary, error) { return nil, nil },
		},
	}

	rec := doRequest(h.StatsHandler, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dtos.StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.TotalIntersections != 4000 || resp.CachedOrigins != 1200 {
		t.Errorf("unexpected counters %+v", resp)
	}
	if resp.Modes == nil {
		t.Error("modes must serialise as an empty array, not null")
	}
	if len(resp.Statuses) != 1 {
		t.Errorf("expected 1 status count, got %v", resp.Statuses)
	}
}

func TestBoundsHandlerEmptyCache(t *testing.T) {
	h := &Handlers{
		Stats: &mockStatsReader{
			boundsFn: func(ctx context.Context) (*repositories.Bounds, error) { return nil, nil },
		},
	}

	rec := doRequest(h.BoundsHandler, "/api/stats/bounds")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if string(body["bounds"]) != "null" {
		t.Errorf("bounds = %s, want null", body["bounds"])
	}
}
