package agent

import (
	"context"
	"time"
)

// Agent is a sales agent with its own channel binding on the messaging
// gateway. The gateway token is the credential used for sends on the agent's
// behalf.
type Agent struct {
	ID            uint              `json:"-"`
	PublicID      string            `json:"id"`
	Slug          string            `json:"slug"`
	Name          string            `json:"name"`
	WebhookURL    string            `json:"webhook_url,omitempty"`
	GatewayToken  string            `json:"-"`
	GatewayNumber string            `json:"gateway_number,omitempty"`
	Active        bool              `json:"active"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type Filter struct {
	ID       *uint
	PublicID *string
	Slug     *string
	Active   *bool
}

type Repository interface {
	Create(ctx context.Context, a *Agent) error
	Update(ctx context.Context, a *Agent) error
	FindByID(ctx context.Context, id uint) (*Agent, error)
	FindByPublicID(ctx context.Context, publicID string) (*Agent, error)
	FindBySlug(ctx context.Context, slug string) (*Agent, error)
	FindByFilter(ctx context.Context, filter Filter) ([]*Agent, error)
}
