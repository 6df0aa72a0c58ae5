package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Event names the limiter and validator care about.
const (
	EventLoginFailed     = "login_failed"
	EventTokenValidation = "token_validation"
)

// Logger records security-relevant actions to the audit_logs table.
type Logger struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewLogger(db *gorm.DB, logger zerolog.Logger) *Logger {
	return &Logger{db: db, logger: logger}
}

type Entry struct {
	Actor      string
	Event      string
	Resource   string
	ResourceID string
	Payload    any
	IPAddress  string
	UserAgent  string
	Success    bool
}

// Log persists the entry; best-effort (logs warning on failure).
func (l *Logger) Log(ctx context.Context, entry Entry) {
	if l == nil || l.db == nil {
		return
	}

	var payloadJSON []byte
	if entry.Payload != nil {
		if b, err := json.Marshal(entry.Payload); err == nil {
			payloadJSON = b
		}
	}

	sql := `
INSERT INTO routing_api.audit_logs
    (actor, event, resource_type, resource_id, payload, ip_address, user_agent, success)
VALUES
    (?, ?, ?, ?, ?, ?, ?, ?)
`
	if err := l.db.WithContext(ctx).Exec(sql,
		entry.Actor,
		entry.Event,
		entry.Resource,
		entry.ResourceID,
		payloadJSON,
		entry.IPAddress,
		entry.UserAgent,
		entry.Success,
	).Error; err != nil {
		l.logger.Warn().Err(err).Str("event", entry.Event).Msg("failed to write audit log")
	}
}

// RecordLoginFailure tags a failed authentication attempt for the login
// rate limiter's window. The limiter itself never writes; this is the
// authentication boundary's half of the contract.
func (l *Logger) RecordLoginFailure(ctx context.Context, identity, ipAddress, userAgent string) {
	l.Log(ctx, Entry{
		Actor:     identity,
		Event:     EventLoginFailed,
		Resource:  "session",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   false,
	})
}

// RecordTokenValidation implements the token validator's audit hook. Only a
// truncated token prefix ever reaches the table.
func (l *Logger) RecordTokenValidation(ctx context.Context, origin, tokenPrefix string, valid bool) {
	l.Log(ctx, Entry{
		Actor:      origin,
		Event:      EventTokenValidation,
		Resource:   "emergency_token",
		ResourceID: tokenPrefix,
		IPAddress:  origin,
		Success:    valid,
	})
}
