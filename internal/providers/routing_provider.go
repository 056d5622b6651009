package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/logging"
	"howfar/backend/internal/models/entities"
	"howfar/backend/internal/spatial"
)

const isochronePath = "/otp/traveltime/isochrone"

// RoutingProvider talks to one routing worker per call. It owns the wire
// protocol: mode parameter translation, departure timestamp rendering, and
// the per-cutoff fallback for the collapsed multi-cutoff response.
type RoutingProvider struct {
	Client         *http.Client
	DayTypeDates   map[string]string
	TimezoneOffset string
}

// NewRoutingProvider creates a routing worker client. timeout covers connect
// and read for a single request.
func NewRoutingProvider(timeout time.Duration, dayTypeDates map[string]string, tzOffset string) *RoutingProvider {
	return &RoutingProvider{
		Client: &http.Client{
			Timeout: timeout,
		},
		DayTypeDates:   dayTypeDates,
		TimezoneOffset: tzOffset,
	}
}

// modeParams translates a travel mode into the worker's parameter vocabulary.
func modeParams(mode string) (map[string]string, error) {
	switch mode {
	case constants.ModeTransit:
		return map[string]string{"modes": "TRANSIT,WALK"}, nil
	case constants.ModeTransitBike:
		return map[string]string{"modes": "TRANSIT", "accessModes": "BIKE", "egressModes": "BIKE"}, nil
	case constants.ModeBike:
		return map[string]string{"modes": "BIKE"}, nil
	case constants.ModeWalk:
		return map[string]string{"modes": "WALK"}, nil
	default:
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidMode,
			Message: fmt.Sprintf("unsupported mode %q", mode),
		}
	}
}

// departureTimestamp renders the worker's time parameter: the day type's
// fixed calendar date, the departure time of day, and the deployment's
// timezone offset.
func (p *RoutingProvider) departureTimestamp(key entities.CacheKey) (string, error) {
	date, ok := p.DayTypeDates[key.DayType]
	if !ok {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidDayType,
			Message: fmt.Sprintf("unsupported day type %q", key.DayType),
		}
	}
	return fmt.Sprintf("%sT%s%s", date, key.DepartureTime, p.TimezoneOffset), nil
}

// ComputeIsochrones fetches travel-time polygons for one origin under one
// cache key. It first issues a single request carrying every cutoff; when the
// worker collapses the projection to fewer than two distinct shapes it falls
// back to one request per cutoff in parallel, tolerating individual failures.
// The result maps cutoff minutes to GeoJSON geometry documents and contains
// only the cutoffs that succeeded.
func (p *RoutingProvider) ComputeIsochrones(
	ctx context.Context,
	workerURL string,
	lat, lng float64,
	key entities.CacheKey,
	cutoffs []int,
) (map[int]json.RawMessage, error) {
	features, err := p.fetch(ctx, workerURL, lat, lng, key, cutoffs)
	if err != nil {
		return nil, err
	}

	if len(cutoffs) >= 2 && spatial.DistinctCount(features) < 2 {
		logging.Warn("multi-cutoff response collapsed, falling back to per-cutoff requests",
			"worker", workerURL, "lat", lat, "lng", lng, "key", key.String())
		return p.fetchPerCutoff(ctx, workerURL, lat, lng, key, cutoffs)
	}

	return mergeFeatures(features)
}

// fetch issues one isochrone request and returns the raw features.
func (p *RoutingProvider) fetch(
	ctx context.Context,
	workerURL string,
	lat, lng float64,
	key entities.CacheKey,
	cutoffs []int,
) ([]spatial.Feature, error) {
	params, err := modeParams(key.Mode)
	if err != nil {
		return nil, err
	}
	timestamp, err := p.departureTimestamp(key)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("batch", "true")
	q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("time", timestamp)
	for _, cutoff := range cutoffs {
		q.Add("cutoff", fmt.Sprintf("PT%dM", cutoff))
	}
	for k, v := range params {
		q.Set(k, v)
	}

	reqURL := workerURL + isochronePath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "failed to create request",
			Err:     err,
		}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "routing worker request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{
			Code:    constants.ErrCodeBadStatus,
			Message: fmt.Sprintf("routing worker returned status %d", resp.StatusCode),
			Details: string(body),
		}
	}

	var fc spatial.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeMalformedResponse,
			Message: "failed to decode routing worker response",
			Err:     err,
		}
	}

	if len(fc.Features) == 0 {
		return nil, &ProviderError{
			Code:    constants.ErrCodeEmptyResponse,
			Message: "routing worker returned no features",
		}
	}

	return fc.Features, nil
}

// fetchPerCutoff issues one request per cutoff in parallel and merges the
// successes. It fails only when every cutoff fails.
func (p *RoutingProvider) fetchPerCutoff(
	ctx context.Context,
	workerURL string,
	lat, lng float64,
	key entities.CacheKey,
	cutoffs []int,
) (map[int]json.RawMessage, error) {
	var mu sync.Mutex
	merged := make(map[int]json.RawMessage)

	g, gctx := errgroup.WithContext(ctx)
	for _, cutoff := range cutoffs {
		cutoff := cutoff
		g.Go(func() error {
			features, err := p.fetch(gctx, workerURL, lat, lng, key, []int{cutoff})
			if err != nil {
				logging.Warn("per-cutoff request failed",
					"worker", workerURL, "cutoff", cutoff, "error", err)
				return nil
			}
			bands, err := mergeFeatures(features)
			if err != nil {
				logging.Warn("per-cutoff response unusable",
					"worker", workerURL, "cutoff", cutoff, "error", err)
				return nil
			}
			mu.Lock()
			for c, geom := range bands {
				merged[c] = geom
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(merged) == 0 {
		return nil, &ProviderError{
			Code:    constants.ErrCodeEmptyResponse,
			Message: "every per-cutoff request failed",
		}
	}
	return merged, nil
}

// mergeFeatures keys features by their time property. Later duplicates win,
// matching the worker's own ordering.
func mergeFeatures(features []spatial.Feature) (map[int]json.RawMessage, error) {
	bands := make(map[int]json.RawMessage, len(features))
	for _, f := range features {
		seconds, err := featureSeconds(f)
		if err != nil {
			return nil, err
		}
		geom, err := f.Geometry.MarshalGeoJSON()
		if err != nil {
			return nil, &ProviderError{
				Code:    constants.ErrCodeMalformedResponse,
				Message: "failed to serialise feature geometry",
				Err:     err,
			}
		}
		bands[seconds/60] = geom
	}
	return bands, nil
}

// featureSeconds reads properties.time, which the worker emits as a decimal
// string of seconds but some builds emit as a number.
func featureSeconds(f spatial.Feature) (int, error) {
	raw, ok := f.Properties["time"]
	if !ok {
		return 0, &ProviderError{
			Code:    constants.ErrCodeMalformedResponse,
			Message: "feature is missing the time property",
		}
	}
	switch v := raw.(type) {
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &ProviderError{
				Code:    constants.ErrCodeMalformedResponse,
				Message: fmt.Sprintf("feature time %q is not an integer", v),
				Err:     err,
			}
		}
		return n, nil
	case float64:
		return int(v), nil
	default:
		return 0, &ProviderError{
			Code:    constants.ErrCodeMalformedResponse,
			Message: fmt.Sprintf("feature time has unexpected type %T", raw),
		}
	}
}
