package security

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type capturedValidation struct {
	origin string
	prefix string
	valid  bool
}

type captureAuditor struct {
	records []capturedValidation
}

func (a *captureAuditor) RecordTokenValidation(_ context.Context, origin, tokenPrefix string, valid bool) {
	a.records = append(a.records, capturedValidation{origin: origin, prefix: tokenPrefix, valid: valid})
}

func fixedValidator(secret string, day time.Time) *TokenValidator {
	v := NewTokenValidator(secret, nil, zerolog.Nop())
	v.now = func() time.Time { return day }
	return v
}

func validTokenFor(v *TokenValidator, day time.Time) string {
	date := day.Format("20060102")
	return fmt.Sprintf("%s-%s-%s-%s", tokenMarker, date, v.checksum(date), tokenSuffix)
}

func TestValidateAcceptsTodayToken(t *testing.T) {
	day := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	v := fixedValidator("shared-secret", day)

	token := validTokenFor(v, day)
	if !v.Validate(context.Background(), token, "10.0.0.1") {
		t.Fatalf("valid token rejected: %s", token)
	}
}

func TestValidateRejectsStaleToken(t *testing.T) {
	day := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	v := fixedValidator("shared-secret", day)
	token := validTokenFor(v, day)

	// The same token re-checked the next day is dead.
	v.now = func() time.Time { return day.AddDate(0, 0, 1) }
	if v.Validate(context.Background(), token, "10.0.0.1") {
		t.Fatal("yesterday's token accepted")
	}

	// And a token minted for tomorrow is not yet alive.
	v.now = func() time.Time { return day }
	tomorrow := validTokenFor(fixedValidator("shared-secret", day.AddDate(0, 0, 1)), day.AddDate(0, 0, 1))
	if v.Validate(context.Background(), tomorrow, "10.0.0.1") {
		t.Fatal("tomorrow's token accepted")
	}
}

func TestValidateFailsClosed(t *testing.T) {
	day := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	v := fixedValidator("shared-secret", day)
	date := day.Format("20060102")
	good := v.checksum(date)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "three segments", token: fmt.Sprintf("EMG-%s-%s", date, good)},
		{name: "five segments", token: fmt.Sprintf("EMG-%s-%s-SECURE-EXTRA", date, good)},
		{name: "wrong marker", token: fmt.Sprintf("XXX-%s-%s-SECURE", date, good)},
		{name: "wrong suffix", token: fmt.Sprintf("EMG-%s-%s-PUBLIC", date, good)},
		{name: "short date", token: fmt.Sprintf("EMG-202608-%s-SECURE", good)},
		{name: "non numeric date", token: fmt.Sprintf("EMG-2026O828-%s-SECURE", good)},
		{name: "wrong checksum", token: fmt.Sprintf("EMG-%s-AAAAAAAA-SECURE", date)},
		{name: "lowercase checksum", token: fmt.Sprintf("EMG-%s-%s-SECURE", date, "abc123de")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if v.Validate(context.Background(), tc.token, "10.0.0.1") {
				t.Fatalf("malformed token accepted: %q", tc.token)
			}
		})
	}
}

func TestChecksumIsDeterministic(t *testing.T) {
	v := fixedValidator("shared-secret", time.Now())

	first := v.checksum("20260828")
	second := v.checksum("20260828")
	if first != second {
		t.Fatalf("checksum not stable: %s != %s", first, second)
	}
	if len(first) == 0 || len(first) > checksumLength {
		t.Fatalf("checksum length = %d", len(first))
	}
	for _, c := range first {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')) {
			t.Fatalf("checksum %q not uppercase base36", first)
		}
	}

	if v.checksum("20260829") == first {
		t.Fatal("different dates produced the same checksum")
	}
	other := fixedValidator("other-secret", time.Now())
	if other.checksum("20260828") == first {
		t.Fatal("different secrets produced the same checksum")
	}
}

func TestValidateAuditsEveryAttempt(t *testing.T) {
	day := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	auditor := &captureAuditor{}
	v := NewTokenValidator("shared-secret", auditor, zerolog.Nop())
	v.now = func() time.Time { return day }

	token := validTokenFor(v, day)
	v.Validate(context.Background(), token, "10.0.0.1")
	v.Validate(context.Background(), "EMG-20260828-WRONG000-SECURE", "10.0.0.2")

	if len(auditor.records) != 2 {
		t.Fatalf("audit records = %d, want one per attempt", len(auditor.records))
	}
	if !auditor.records[0].valid || auditor.records[1].valid {
		t.Fatalf("audit outcomes = %+v", auditor.records)
	}
	for _, rec := range auditor.records {
		if len(rec.prefix) > auditPrefixLen {
			t.Fatalf("audit leaked %d token chars", len(rec.prefix))
		}
	}
	if auditor.records[0].prefix == token {
		t.Fatal("full token reached the audit trail")
	}
}
