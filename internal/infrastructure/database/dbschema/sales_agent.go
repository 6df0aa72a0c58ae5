package dbschema

import (
	"leadchat-server/services/routing-api/internal/domain/agent"
	"leadchat-server/services/routing-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(SalesAgent{})
}

// SalesAgent represents the database schema for the agent registry
type SalesAgent struct {
	BaseModel
	PublicID      string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	Slug          string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name          string  `gorm:"type:varchar(128);not null"`
	WebhookURL    string  `gorm:"type:varchar(512)"`
	GatewayToken  string  `gorm:"type:text"`
	GatewayNumber string  `gorm:"type:varchar(32)"`
	Active        *bool   `gorm:"not null;default:true;index"`
	Metadata      JSONMap `gorm:"type:jsonb"`
}

// NewSchemaSalesAgent creates a database schema from a domain agent
func NewSchemaSalesAgent(a *agent.Agent) *SalesAgent {
	active := a.Active
	return &SalesAgent{
		BaseModel: BaseModel{
			ID:        a.ID,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		},
		PublicID:      a.PublicID,
		Slug:          a.Slug,
		Name:          a.Name,
		WebhookURL:    a.WebhookURL,
		GatewayToken:  a.GatewayToken,
		GatewayNumber: a.GatewayNumber,
		Active:        &active,
		Metadata:      JSONMap(a.Metadata),
	}
}

// EtoD converts database schema to domain agent (Entity to Domain)
func (a *SalesAgent) EtoD() *agent.Agent {
	active := false
	if a.Active != nil {
		active = *a.Active
	}
	return &agent.Agent{
		ID:            a.ID,
		PublicID:      a.PublicID,
		Slug:          a.Slug,
		Name:          a.Name,
		WebhookURL:    a.WebhookURL,
		GatewayToken:  a.GatewayToken,
		GatewayNumber: a.GatewayNumber,
		Active:        active,
		Metadata:      map[string]string(a.Metadata),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
