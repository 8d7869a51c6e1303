// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/qr-ballot/models"
)

func TestNewRateLimiter_DisabledWhenZero(t *testing.T) {
	if l := NewRateLimiter(0, false); l != nil {
		t.Error("Expected nil limiter for zero rate")
	}

	called := false
	handler := WithRateLimit(nil, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	handler(httptest.NewRecorder(), httptest.NewRequest("GET", "/voter", nil))
	if !called {
		t.Error("Expected handler to be called without a limiter")
	}
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	l := NewRateLimiter(1, false) // burst 2
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("Expected burst of 2 to be allowed")
	}
	if l.Allow("a") {
		t.Error("Expected third request to be limited")
	}

	// Other clients have their own bucket
	if !l.Allow("b") {
		t.Error("Expected a different client to be allowed")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Error("Expected a token after one second")
	}
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, false)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(idleLimiterTTL + time.Second)
	l.Allow("new")

	if _, ok := l.clients["old"]; ok {
		t.Error("Expected idle client bucket to be removed")
	}
	if len(l.clients) != 1 {
		t.Errorf("Expected 1 client bucket, got %d", len(l.clients))
	}
}

func TestRateLimiter_SweepIsAmortized(t *testing.T) {
	l := NewRateLimiter(1, false)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("first")
	swept := l.lastSweep
	if !swept.Equal(now) {
		t.Fatalf("Expected first new client to trigger a sweep, lastSweep=%s", swept)
	}

	// New clients inside the interval do not rescan the map
	now = now.Add(sweepInterval / 2)
	l.Allow("second")
	l.Allow("third")
	if !l.lastSweep.Equal(swept) {
		t.Errorf("Expected no sweep within %s, lastSweep moved to %s", sweepInterval, l.lastSweep)
	}

	now = now.Add(sweepInterval)
	l.Allow("fourth")
	if !l.lastSweep.Equal(now) {
		t.Errorf("Expected a sweep once the interval passed, lastSweep=%s", l.lastSweep)
	}
	if len(l.clients) != 4 {
		t.Errorf("Expected 4 live client buckets, got %d", len(l.clients))
	}
}

func TestWithRateLimit(t *testing.T) {
	l := NewRateLimiter(0.5, true) // burst 1, behind a proxy
	handler := WithRateLimit(l, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/voter/vote", nil)
		req.RemoteAddr = "10.0.0.2:443"
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	if w := send("198.51.100.1"); w.Code != http.StatusOK {
		t.Fatalf("Expected first request to pass, got %d", w.Code)
	}

	w := send("198.51.100.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error != "Too Many Requests" {
		t.Errorf("Expected 'Too Many Requests', got '%s'", resp.Error)
	}

	if w := send("198.51.100.2"); w.Code != http.StatusOK {
		t.Errorf("Expected other client behind the proxy to pass, got %d", w.Code)
	}
}

// A client talking to the server directly cannot dodge its bucket by
// rotating X-Forwarded-For
func TestWithRateLimit_IgnoresForgedForwardedFor(t *testing.T) {
	l := NewRateLimiter(0.5, false)
	handler := WithRateLimit(l, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	codes := []int{}
	for _, forged := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest("POST", "/voter/vote", nil)
		req.RemoteAddr = "198.51.100.9:50000"
		req.Header.Set("X-Forwarded-For", forged)
		w := httptest.NewRecorder()
		handler(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK {
		t.Fatalf("Expected first request to pass, got %d", codes[0])
	}
	for i, code := range codes[1:] {
		if code != http.StatusTooManyRequests {
			t.Errorf("Request %d with forged header: expected 429, got %d", i+2, code)
		}
	}
	if _, ok := l.clients["198.51.100.9"]; !ok || len(l.clients) != 1 {
		t.Errorf("Expected a single bucket keyed on the peer address, got %v", len(l.clients))
	}
}
