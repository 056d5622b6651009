package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerAffinity(t *testing.T) {
	urls := []string{"http://w0:8080", "http://w1:8080", "http://w2:8080"}
	fleet := NewFleet(urls, time.Second)

	if fleet.Size() != 3 {
		t.Fatalf("expected size 3, got %d", fleet.Size())
	}

	cases := []struct {
		index int
		want  string
	}{
		{0, "http://w0:8080"},
		{1, "http://w1:8080"},
		{2, "http://w2:8080"},
		{3, "http://w0:8080"},
		{7, "http://w1:8080"},
		{3002, "http://w2:8080"},
	}
	for _, tc := range cases {
		if got := fleet.Worker(tc.index); got != tc.want {
			t.Errorf("Worker(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}

func TestHealthCheckProbesFirstWorkerOnly(t *testing.T) {
	var probes atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fleet := NewFleet([]string{server.URL, "http://127.0.0.1:1"}, time.Second)
	if !fleet.HealthCheck(context.Background()) {
		t.Error("expected a healthy fleet")
	}
	if probes.Load() != 1 {
		t.Errorf("expected exactly one probe, got %d", probes.Load())
	}
}

func TestHealthCheckServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "graph loading", http.StatusInternalServerError)
	}))
	defer server.Close()

	fleet := NewFleet([]string{server.URL}, time.Second)
	if fleet.HealthCheck(context.Background()) {
		t.Error("expected an unhealthy fleet on a 500 response")
	}
}

func TestHealthCheckAcceptsClientError(t *testing.T) {
	// A 404 from the root path still means the worker process is up.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fleet := NewFleet([]string{server.URL}, time.Second)
	if !fleet.HealthCheck(context.Background()) {
		t.Error("expected a 404 to count as healthy")
	}
}

func TestHealthCheckUnreachable(t *testing.T) {
	fleet := NewFleet([]string{"http://127.0.0.1:1"}, 200*time.Millisecond)
	if fleet.HealthCheck(context.Background()) {
		t.Error("expected an unreachable worker to be unhealthy")
	}
}

func TestWaitReadyEmptyFleet(t *testing.T) {
	fleet := NewFleet(nil, time.Second)
	if err := fleet.WaitReady(context.Background(), 3, time.Millisecond); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("expected ErrNoWorkers, got %v", err)
	}
}

func TestWaitReadyEventuallyHealthy(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "still loading", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fleet := NewFleet([]string{server.URL}, time.Second)
	if err := fleet.WaitReady(context.Background(), 5, time.Millisecond); err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 probes, got %d", calls.Load())
	}
}

func TestWaitReadyGivesUp(t *testing.T) {
	fleet := NewFleet([]string{"http://127.0.0.1:1"}, 100*time.Millisecond)
	if err := fleet.WaitReady(context.Background(), 2, time.Millisecond); err == nil {
		t.Error("expected an error when the fleet never comes up")
	}
}

func TestWaitReadyHonorsContext(t *testing.T) {
	fleet := NewFleet([]string{"http://127.0.0.1:1"}, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fleet.WaitReady(ctx, 10, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
