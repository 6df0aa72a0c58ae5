package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"leadchat-server/services/routing-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(AuditLog{})
}

// AuditLog represents the database schema for security audit rows. Written
// by the audit logger, read by the login rate limiter.
type AuditLog struct {
	ID           uint           `gorm:"primarykey"`
	Actor        string         `gorm:"type:varchar(128);index:idx_audit_actor_event_created;not null"`
	Event        string         `gorm:"type:varchar(64);index:idx_audit_actor_event_created;not null"`
	ResourceType string         `gorm:"type:varchar(64)"`
	ResourceID   string         `gorm:"type:varchar(128)"`
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	IPAddress    string         `gorm:"type:varchar(64)"`
	UserAgent    string         `gorm:"type:varchar(256)"`
	Success      bool           `gorm:"not null;default:false"`
	CreatedAt    time.Time      `gorm:"index:idx_audit_actor_event_created;not null"`
}
