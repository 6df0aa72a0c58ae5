package dbschema

import (
	"leadchat-server/services/routing-api/internal/domain/message"
	"leadchat-server/services/routing-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Message{})
}

// Message represents the database schema for the unified timeline. The
// partial unique index on the transport message id is the correctness
// guarantee of reconciliation: at most one row per non-null transport id.
type Message struct {
	BaseModel
	PublicID           string                `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID     uint                  `gorm:"index:idx_message_conversation_created;not null"`
	Conversation       Conversation          `gorm:"foreignKey:ConversationID"`
	SenderType         message.SenderType    `gorm:"type:varchar(20);not null"`
	SenderName         string                `gorm:"type:varchar(128)"`
	Content            string                `gorm:"type:text;not null"`
	Kind               message.Kind          `gorm:"type:varchar(20);not null;default:'text'"`
	TransportMessageID *string               `gorm:"type:varchar(128);uniqueIndex:idx_message_transport_id,where:transport_message_id IS NOT NULL"`
	Status             message.DeliveryState `gorm:"type:varchar(20);not null"`
}

// NewSchemaMessage creates a database schema from a domain message
func NewSchemaMessage(m *message.Message) *Message {
	return &Message{
		BaseModel: BaseModel{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
		},
		PublicID:           m.PublicID,
		ConversationID:     m.ConversationID,
		SenderType:         m.SenderType,
		SenderName:         m.SenderName,
		Content:            m.Content,
		Kind:               m.Kind,
		TransportMessageID: m.TransportMessageID,
		Status:             m.Status,
	}
}

// EtoD converts database schema to domain message (Entity to Domain)
func (m *Message) EtoD() *message.Message {
	return &message.Message{
		ID:                 m.ID,
		PublicID:           m.PublicID,
		ConversationID:     m.ConversationID,
		SenderType:         m.SenderType,
		SenderName:         m.SenderName,
		Content:            m.Content,
		Kind:               m.Kind,
		TransportMessageID: m.TransportMessageID,
		Status:             m.Status,
		CreatedAt:          m.CreatedAt,
	}
}
