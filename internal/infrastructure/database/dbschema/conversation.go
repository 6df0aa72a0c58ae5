package dbschema

import (
	"time"

	"leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Conversation{})
}

// Conversation represents the database schema for conversations
type Conversation struct {
	BaseModel
	PublicID        string              `gorm:"type:varchar(50);uniqueIndex;not null"`
	ContactNumber   string              `gorm:"type:varchar(32);index:idx_conversation_contact_status;not null"`
	ContactName     string              `gorm:"type:varchar(128)"`
	Status          conversation.Status `gorm:"type:varchar(20);index:idx_conversation_contact_status;not null;default:'bot'"`
	LeadTemperature *string             `gorm:"type:varchar(10)"`
	AssignedAgentID *uint               `gorm:"index"`
	Agent           *SalesAgent         `gorm:"foreignKey:AssignedAgentID"`
	Source          string              `gorm:"type:varchar(32)"`
	Metadata        JSONMap             `gorm:"type:jsonb"`
	ClosedAt        *time.Time          `gorm:"type:timestamp"`
}

// NewSchemaConversation creates a database schema from a domain conversation
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	row := &Conversation{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		PublicID:        c.PublicID,
		ContactNumber:   c.ContactNumber,
		ContactName:     c.ContactName,
		Status:          c.Status,
		AssignedAgentID: c.AssignedAgentID,
		Source:          c.Source,
		Metadata:        JSONMap(c.Metadata),
		ClosedAt:        c.ClosedAt,
	}
	if c.LeadTemperature != "" {
		temperature := string(c.LeadTemperature)
		row.LeadTemperature = &temperature
	}
	return row
}

// EtoD converts database schema to domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *conversation.Conversation {
	conv := &conversation.Conversation{
		ID:              c.ID,
		PublicID:        c.PublicID,
		ContactNumber:   c.ContactNumber,
		ContactName:     c.ContactName,
		Status:          c.Status,
		AssignedAgentID: c.AssignedAgentID,
		Source:          c.Source,
		Metadata:        map[string]string(c.Metadata),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		ClosedAt:        c.ClosedAt,
	}
	if c.LeadTemperature != nil {
		conv.LeadTemperature = conversation.LeadTemperature(*c.LeadTemperature)
	}
	if c.Agent != nil {
		publicID := c.Agent.PublicID
		conv.AssignedAgent = &publicID
	}
	return conv
}
