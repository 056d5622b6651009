package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func rateLimitedHandler() http.Handler {
	return RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimitMiddlewareAllowsBurst(t *testing.T) {
	handler := rateLimitedHandler()

	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/click", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d rejected with %d inside the burst window", i, rec.Code)
		}
	}
}

func TestRateLimitMiddlewareRejectsFlood(t *testing.T) {
	handler := rateLimitedHandler()

	rejected := false
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/click", nil)
		req.RemoteAddr = "10.0.0.2:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			rejected = true
			break
		}
	}
	if !rejected {
		t.Error("expected a 429 once the burst was exhausted")
	}
}

func TestRateLimitMiddlewareWhitelistsLoopback(t *testing.T) {
	handler := rateLimitedHandler()

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/click", nil)
		req.RemoteAddr = "127.0.0.1:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("whitelisted request %d rejected with %d", i, rec.Code)
		}
	}
}
