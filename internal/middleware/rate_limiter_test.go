package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterEnforcesBurst(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 2, time.Hour)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected first request to be allowed")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected second request to fit within the burst")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("expected third request inside the window to be denied")
	}
	if !limiter.Allow("5.6.7.8") {
		t.Fatal("expected a different key to have its own budget")
	}
}

func TestIPRateLimiterExpiresIdleEntries(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 1, time.Minute).(*ipRateLimiter)

	current := time.Now()
	limiter.now = func() time.Time { return current }

	limiter.Allow("stale")

	current = current.Add(2 * time.Minute)
	limiter.Allow("fresh")

	limiter.mu.Lock()
	_, staleKept := limiter.buckets["stale"]
	_, freshKept := limiter.buckets["fresh"]
	limiter.mu.Unlock()

	if staleKept {
		t.Fatal("expected the idle entry to be swept")
	}
	if !freshKept {
		t.Fatal("expected the active entry to survive the sweep")
	}
}
