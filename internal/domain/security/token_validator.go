package security

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	tokenMarker    = "EMG"
	tokenSuffix    = "SECURE"
	tokenDateLen   = 8
	checksumLength = 8
	// auditPrefixLen caps how much of a token ever reaches a log or audit
	// row.
	auditPrefixLen = 12
)

// ValidationAuditor records every token validation attempt. Implemented by
// the audit writer; recording is best effort.
type ValidationAuditor interface {
	RecordTokenValidation(ctx context.Context, origin, tokenPrefix string, valid bool)
}

// TokenValidator checks short-lived emergency access tokens of the form
// EMG-YYYYMMDD-CHECKSUM-SECURE. It fails closed: malformed input of any
// shape yields false, never an error or panic past this boundary.
type TokenValidator struct {
	secret  string
	auditor ValidationAuditor
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTokenValidator creates a validator over the shared checksum secret.
// auditor may be nil.
func NewTokenValidator(secret string, auditor ValidationAuditor, logger zerolog.Logger) *TokenValidator {
	return &TokenValidator{
		secret:  secret,
		auditor: auditor,
		logger:  logger,
		now:     time.Now,
	}
}

// Validate reports whether token is a well-formed emergency token for
// today. Every attempt is audited with the requesting origin and a
// truncated token prefix; the full token is never logged.
func (v *TokenValidator) Validate(ctx context.Context, token, origin string) bool {
	valid := v.check(token)

	prefix := token
	if len(prefix) > auditPrefixLen {
		prefix = prefix[:auditPrefixLen]
	}

	v.logger.Info().
		Str("origin", origin).
		Str("token_prefix", prefix).
		Bool("valid", valid).
		Msg("emergency token validation")

	if v.auditor != nil {
		v.auditor.RecordTokenValidation(ctx, origin, prefix, valid)
	}
	return valid
}

func (v *TokenValidator) check(token string) bool {
	segments := strings.Split(token, "-")
	if len(segments) != 4 {
		return false
	}
	if segments[0] != tokenMarker || segments[3] != tokenSuffix {
		return false
	}

	date := segments[1]
	if len(date) != tokenDateLen {
		return false
	}
	for _, c := range date {
		if c < '0' || c > '9' {
			return false
		}
	}
	// No tolerance window: yesterday's token is dead, tomorrow's not yet
	// alive.
	if date != v.now().Format("20060102") {
		return false
	}

	return segments[2] == v.checksum(date)
}

// checksum derives the token's third segment from the date and the shared
// secret: a rolling 31-multiplier hash truncated to 32-bit signed, then the
// absolute value in uppercase base 36, first 8 characters.
func (v *TokenValidator) checksum(date string) string {
	input := date + v.secret
	var h int32
	for _, c := range input {
		h = h*31 + int32(c)
	}

	value := int64(h)
	if value < 0 {
		value = -value
	}
	encoded := strings.ToUpper(strconv.FormatInt(value, 36))
	if len(encoded) > checksumLength {
		encoded = encoded[:checksumLength]
	}
	return encoded
}
