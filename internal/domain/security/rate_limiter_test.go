package security

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCounter struct {
	counts    map[string]int64
	lastSince time.Time
	err       error
}

func (c *fakeCounter) CountLoginFailures(_ context.Context, identity string, since time.Time) (int64, error) {
	c.lastSince = since
	if c.err != nil {
		return 0, c.err
	}
	return c.counts[identity], nil
}

func TestLoginRateLimiter(t *testing.T) {
	tests := []struct {
		name        string
		failures    int64
		wantBlocked bool
	}{
		{name: "clean identity", failures: 0},
		{name: "under the limit", failures: 4},
		{name: "at the limit", failures: 5, wantBlocked: true},
		{name: "over the limit", failures: 9, wantBlocked: true},
	}

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			counter := &fakeCounter{counts: map[string]int64{"ops@leadchat": tc.failures}}
			limiter := NewLoginRateLimiter(counter)
			limiter.now = func() time.Time { return now }

			result, err := limiter.Check(context.Background(), "ops@leadchat")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Blocked != tc.wantBlocked {
				t.Fatalf("blocked = %v, want %v", result.Blocked, tc.wantBlocked)
			}
			if result.Attempts != int(tc.failures) {
				t.Fatalf("attempts = %d, want %d", result.Attempts, tc.failures)
			}
			if tc.wantBlocked {
				want := now.Add(loginWindow)
				if result.ResetAt == nil || !result.ResetAt.Equal(want) {
					t.Fatalf("reset_at = %v, want %v", result.ResetAt, want)
				}
			} else if result.ResetAt != nil {
				t.Fatalf("reset_at set for an unblocked identity")
			}

			wantSince := now.Add(-loginWindow)
			if !counter.lastSince.Equal(wantSince) {
				t.Fatalf("window start = %v, want %v", counter.lastSince, wantSince)
			}
		})
	}
}

func TestLoginRateLimiterCounterFailure(t *testing.T) {
	counter := &fakeCounter{err: errors.New("audit store down")}
	limiter := NewLoginRateLimiter(counter)

	if _, err := limiter.Check(context.Background(), "ops@leadchat"); err == nil {
		t.Fatal("expected an error when the audit store is unavailable")
	}
}
