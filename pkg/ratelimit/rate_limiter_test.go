package ratelimit

import (
	"context"
	"testing"
	"time"
)

func testConfig(enabled bool) *Config {
	return &Config{
		Enabled:         enabled,
		WindowDuration:  time.Minute,
		DefaultRequests: 100,
		PublicRequests:  200,
		AuthRequests:    20,
		BookingRequests: 10,
		WhitelistedIPs:  []string{"10.0.0.1"},
	}
}

func TestWindowResult(t *testing.T) {
	t.Run("request within the budget is allowed", func(t *testing.T) {
		result, err := windowResult([]interface{}{int64(3), int64(2)}, 5, 0)
		if err != nil {
			t.Fatalf("windowResult() error = %v", err)
		}
		if !result.Allowed {
			t.Error("allowed = false, want true")
		}
		if result.Remaining != 2 {
			t.Errorf("remaining = %d, want 2", result.Remaining)
		}
	})

	t.Run("request at the boundary is allowed", func(t *testing.T) {
		result, err := windowResult([]interface{}{int64(5), int64(0)}, 5, 0)
		if err != nil {
			t.Fatalf("windowResult() error = %v", err)
		}
		if !result.Allowed {
			t.Error("allowed = false, want true")
		}
		if result.Remaining != 0 {
			t.Errorf("remaining = %d, want 0", result.Remaining)
		}
	})

	t.Run("request over the budget is rejected", func(t *testing.T) {
		result, err := windowResult([]interface{}{int64(6), int64(-1)}, 5, 0)
		if err != nil {
			t.Fatalf("windowResult() error = %v", err)
		}
		if result.Allowed {
			t.Error("allowed = true, want false")
		}
		if result.Remaining != 0 {
			t.Errorf("remaining = %d, want 0 (clamped)", result.Remaining)
		}
	})

	t.Run("non-integer reply values surface an error", func(t *testing.T) {
		// A reply that cannot be read as counts must never pass as allowed
		if _, err := windowResult([]interface{}{"6", "-1"}, 5, 0); err == nil {
			t.Fatal("windowResult() accepted string values, want error")
		}
	})

	t.Run("malformed reply shape surfaces an error", func(t *testing.T) {
		if _, err := windowResult(int64(6), 5, 0); err == nil {
			t.Fatal("windowResult() accepted a scalar reply, want error")
		}
		if _, err := windowResult([]interface{}{int64(6)}, 5, 0); err == nil {
			t.Fatal("windowResult() accepted a one-element reply, want error")
		}
	})
}

func TestIsAllowedShortCircuits(t *testing.T) {
	t.Run("disabled limiter always allows", func(t *testing.T) {
		limiter := NewRateLimiter(nil, testConfig(false))

		result, err := limiter.IsAllowed(context.Background(), "192.0.2.1", RateLimitTypeBooking)
		if err != nil {
			t.Fatalf("IsAllowed() error = %v", err)
		}
		if !result.Allowed {
			t.Error("allowed = false, want true")
		}
		if result.Limit != 10 {
			t.Errorf("limit = %d, want 10", result.Limit)
		}
	})

	t.Run("whitelisted IP skips the window check", func(t *testing.T) {
		limiter := NewRateLimiter(nil, testConfig(true))

		result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeDefault)
		if err != nil {
			t.Fatalf("IsAllowed() error = %v", err)
		}
		if !result.Allowed {
			t.Error("allowed = false, want true")
		}
	})
}
