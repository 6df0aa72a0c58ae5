package dbschema

import (
	"encoding/json"

	"gorm.io/datatypes"

	"leadchat-server/services/routing-api/internal/domain/delivery"
	"leadchat-server/services/routing-api/internal/infrastructure/database"
	"leadchat-server/services/routing-api/internal/infrastructure/logger"
)

func init() {
	database.RegisterSchemaForAutoMigrate(DeliveryLogEntry{})
}

// DeliveryLogEntry represents the database schema for outbound delivery
// audit rows
type DeliveryLogEntry struct {
	BaseModel
	PublicID           string               `gorm:"type:varchar(50);uniqueIndex"`
	SenderID           string               `gorm:"type:varchar(64);index;not null"`
	Recipient          string               `gorm:"type:varchar(64);not null"`
	Content            string               `gorm:"type:text;not null"`
	ContextType        delivery.ContextType `gorm:"type:varchar(20);index:idx_delivery_context_created;not null"`
	TransportMessageID *string              `gorm:"type:varchar(128);index"`
	Status             delivery.Status      `gorm:"type:varchar(20);not null"`
	Metadata           datatypes.JSON       `gorm:"type:jsonb"`
}

// NewSchemaDeliveryLogEntry creates a database schema from a domain entry
func NewSchemaDeliveryLogEntry(e *delivery.Entry) *DeliveryLogEntry {
	var metadataJSON datatypes.JSON
	if len(e.Metadata) > 0 {
		if data, err := json.Marshal(e.Metadata); err == nil {
			metadataJSON = datatypes.JSON(data)
		}
	}

	return &DeliveryLogEntry{
		BaseModel: BaseModel{
			ID:        e.ID,
			CreatedAt: e.CreatedAt,
		},
		PublicID:           e.PublicID,
		SenderID:           e.SenderID,
		Recipient:          e.Recipient,
		Content:            e.Content,
		ContextType:        e.ContextType,
		TransportMessageID: e.TransportMessageID,
		Status:             e.Status,
		Metadata:           metadataJSON,
	}
}

// EtoD converts database schema to domain entry (Entity to Domain)
func (e *DeliveryLogEntry) EtoD() *delivery.Entry {
	var metadata map[string]string
	if len(e.Metadata) > 0 {
		if err := json.Unmarshal(e.Metadata, &metadata); err != nil {
			log := logger.GetLogger()
			log.Error().Msgf("failed to unmarshal delivery metadata for entry ID %d: %v", e.ID, err)
		}
	}

	return &delivery.Entry{
		ID:                 e.ID,
		PublicID:           e.PublicID,
		SenderID:           e.SenderID,
		Recipient:          e.Recipient,
		Content:            e.Content,
		ContextType:        e.ContextType,
		TransportMessageID: e.TransportMessageID,
		Status:             e.Status,
		Metadata:           metadata,
		CreatedAt:          e.CreatedAt,
	}
}
