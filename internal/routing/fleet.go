package routing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"howfar/backend/internal/logging"
)

// Fleet is a static ordered list of routing worker base URLs. Origin i is
// routed to worker i mod N so a re-run lands each origin on the same worker.
type Fleet struct {
	urls   []string
	client *http.Client
}

// ErrNoWorkers is returned when the fleet is configured empty.
var ErrNoWorkers = errors.New("routing fleet has no workers")

// NewFleet builds a fleet directory. healthTimeout bounds a single probe.
func NewFleet(urls []string, healthTimeout time.Duration) *Fleet {
	return &Fleet{
		urls: urls,
		client: &http.Client{
			Timeout: healthTimeout,
		},
	}
}

// Size returns the number of workers.
func (f *Fleet) Size() int {
	return len(f.urls)
}

// Worker returns the base URL for index i, wrapping around the fleet.
func (f *Fleet) Worker(i int) string {
	return f.urls[i%len(f.urls)]
}

// HealthCheck probes the first worker's root path. The fleet shares one
// routing graph, so one responsive worker means the graph is loaded.
func (f *Fleet) HealthCheck(ctx context.Context) bool {
	if len(f.urls) == 0 {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.urls[0], nil)
	if err != nil {
		return false
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500
}

// WaitReady polls HealthCheck up to maxAttempts times, sleeping interval
// between probes. It returns an error when the fleet never comes up.
func (f *Fleet) WaitReady(ctx context.Context, maxAttempts int, interval time.Duration) error {
	if len(f.urls) == 0 {
		return ErrNoWorkers
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if f.HealthCheck(ctx) {
			logging.Info("routing fleet is ready", "attempt", attempt, "workers", len(f.urls))
			return nil
		}
		logging.Info("routing fleet not ready yet",
			"attempt", attempt, "max_attempts", maxAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return errors.New("routing fleet did not become healthy")
}
