package security

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/domain/security"
)

type stubFailureCounter struct {
	count int64
	err   error
}

func (s *stubFailureCounter) CountLoginFailures(ctx context.Context, identity string, since time.Time) (int64, error) {
	return s.count, s.err
}

func newTestRouter(counter security.FailureCounter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	route := NewSecurityRoute(
		security.NewTokenValidator("shared-secret", nil, zerolog.Nop()),
		security.NewLoginRateLimiter(counter),
		nil,
	)
	engine := gin.New()
	route.RegisterRouter(engine.Group("/v1"))
	return engine
}

func TestValidateTokenMalformed(t *testing.T) {
	engine := newTestRouter(&stubFailureCounter{})

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong marker", token: "XXX-20260115-ABCDEFGH-SECURE"},
		{name: "wrong suffix", token: "EMG-20260115-ABCDEFGH-PUBLIC"},
		{name: "stale date", token: "EMG-20200101-ABCDEFGH-SECURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"token":"` + tt.token + `","origin":"test"}`
			req := httptest.NewRequest(http.MethodPost, "/v1/security/tokens/validate", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			var payload map[string]bool
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if payload["valid"] {
				t.Errorf("token %q reported valid", tt.token)
			}
		})
	}
}

func TestValidateTokenMissingBody(t *testing.T) {
	engine := newTestRouter(&stubFailureCounter{})

	req := httptest.NewRequest(http.MethodPost, "/v1/security/tokens/validate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCheckLoginAttempts(t *testing.T) {
	tests := []struct {
		name        string
		failures    int64
		wantBlocked bool
	}{
		{name: "clean identity", failures: 0, wantBlocked: false},
		{name: "under the limit", failures: 4, wantBlocked: false},
		{name: "at the limit", failures: 5, wantBlocked: true},
		{name: "over the limit", failures: 9, wantBlocked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestRouter(&stubFailureCounter{count: tt.failures})

			req := httptest.NewRequest(http.MethodPost, "/v1/security/login-attempts/check", strings.NewReader(`{"identity":"ops@example.com"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			var result security.CheckResult
			if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if result.Blocked != tt.wantBlocked {
				t.Errorf("blocked = %v, want %v", result.Blocked, tt.wantBlocked)
			}
			if result.Attempts != int(tt.failures) {
				t.Errorf("attempts = %d, want %d", result.Attempts, tt.failures)
			}
			if tt.wantBlocked && result.ResetAt == nil {
				t.Error("blocked result has no reset time")
			}
		})
	}
}
