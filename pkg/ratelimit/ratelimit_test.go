package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowEnforcesBurst(t *testing.T) {
	l := NewLimiter(1, 2)

	if !l.Allow("caller-a") {
		t.Error("First request should be allowed")
	}
	if !l.Allow("caller-a") {
		t.Error("Second request within burst should be allowed")
	}
	if l.Allow("caller-a") {
		t.Error("Third request should exceed burst")
	}

	// A different key has its own budget.
	if !l.Allow("caller-b") {
		t.Error("Separate key should not share the budget")
	}
}

func TestMiddlewareReturns429(t *testing.T) {
	l := NewLimiter(1, 1)

	handler := l.Middleware(CallerKeyFunc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/signer", nil)
	req.Header.Set("Authorization", "Bearer key")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
}

func TestCleanupDropsIdleLimiters(t *testing.T) {
	l := NewLimiter(1, 1)
	l.Allow("stale")

	l.Cleanup(time.Nanosecond)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.limiters) != 0 {
		t.Errorf("Expected idle limiter to be dropped, got %d", len(l.limiters))
	}
}
