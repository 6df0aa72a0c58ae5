package security

import (
	"context"
	"time"

	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

const (
	loginWindow      = 15 * time.Minute
	maxLoginFailures = 5
)

// FailureCounter counts failed-authentication audit events for one identity
// since a point in time. Implemented by the audit repository.
type FailureCounter interface {
	CountLoginFailures(ctx context.Context, identity string, since time.Time) (int64, error)
}

// CheckResult is the limiter's verdict for one identity.
type CheckResult struct {
	Blocked  bool       `json:"blocked"`
	Attempts int        `json:"attempts"`
	ResetAt  *time.Time `json:"reset_at,omitempty"`
}

// LoginRateLimiter gates authentication attempts on recent failures. It is a
// read-only consumer of the audit log: recording the failure itself belongs
// to the authentication boundary, which keeps this gate side-effect free.
type LoginRateLimiter struct {
	counter FailureCounter
	now     func() time.Time
}

func NewLoginRateLimiter(counter FailureCounter) *LoginRateLimiter {
	return &LoginRateLimiter{
		counter: counter,
		now:     time.Now,
	}
}

// Check blocks an identity once it accumulates 5 failed logins inside the
// trailing 15 minutes, reporting when the block lifts.
func (l *LoginRateLimiter) Check(ctx context.Context, identity string) (*CheckResult, error) {
	now := l.now()
	count, err := l.counter.CountLoginFailures(ctx, identity, now.Add(-loginWindow))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count login failures")
	}

	result := &CheckResult{Attempts: int(count)}
	if count >= maxLoginFailures {
		result.Blocked = true
		resetAt := now.Add(loginWindow)
		result.ResetAt = &resetAt
	}
	return result, nil
}
