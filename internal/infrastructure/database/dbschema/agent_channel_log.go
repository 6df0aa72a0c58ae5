package dbschema

import (
	"time"

	"leadchat-server/services/routing-api/internal/domain/agentlog"
	"leadchat-server/services/routing-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(AgentChannelLogEntry{})
}

// AgentChannelLogEntry represents the database schema for the append-only
// per-agent delivery log. Rows are inserted by the agent-channel webhook and
// read by reconciliation; nothing updates them.
type AgentChannelLogEntry struct {
	ID                 uint               `gorm:"primarykey"`
	ConversationID     *uint              `gorm:"index"`
	AgentID            uint               `gorm:"index;not null"`
	TransportMessageID string             `gorm:"type:varchar(128);index;not null"`
	Direction          agentlog.Direction `gorm:"type:varchar(20);not null"`
	Content            string             `gorm:"type:text"`
	MediaKind          string             `gorm:"type:varchar(20)"`
	ContactNumber      string             `gorm:"type:varchar(32)"`
	SentAt             time.Time          `gorm:"index;not null"`
	CreatedAt          time.Time          `gorm:"not null"`
}

// NewSchemaAgentChannelLogEntry creates a database schema from a domain entry
func NewSchemaAgentChannelLogEntry(e *agentlog.Entry) *AgentChannelLogEntry {
	return &AgentChannelLogEntry{
		ID:                 e.ID,
		ConversationID:     e.ConversationID,
		AgentID:            e.AgentID,
		TransportMessageID: e.TransportMessageID,
		Direction:          e.Direction,
		Content:            e.Content,
		MediaKind:          e.MediaKind,
		ContactNumber:      e.ContactNumber,
		SentAt:             e.SentAt,
	}
}

// EtoD converts database schema to domain entry (Entity to Domain)
func (e *AgentChannelLogEntry) EtoD() *agentlog.Entry {
	return &agentlog.Entry{
		ID:                 e.ID,
		ConversationID:     e.ConversationID,
		AgentID:            e.AgentID,
		TransportMessageID: e.TransportMessageID,
		Direction:          e.Direction,
		Content:            e.Content,
		MediaKind:          e.MediaKind,
		ContactNumber:      e.ContactNumber,
		SentAt:             e.SentAt,
	}
}
