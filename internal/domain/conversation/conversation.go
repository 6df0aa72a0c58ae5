package conversation

import (
	"context"
	"time"

	"leadchat-server/services/routing-api/internal/domain/query"
)

// Status identifies who currently owns a conversation.
type Status string

const (
	// StatusBot is the initial state for every new conversation.
	StatusBot Status = "bot"
	// StatusManual means a human operator has taken control.
	StatusManual Status = "manual"
	// StatusSeller means ownership was transferred to a specific sales agent.
	StatusSeller Status = "seller"
	// StatusWaiting means the customer responded but no human has engaged.
	StatusWaiting Status = "waiting"
	// StatusClosed is terminal. No transition leaves it.
	StatusClosed Status = "closed"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusBot, StatusManual, StatusSeller, StatusWaiting, StatusClosed:
		return true
	}
	return false
}

// LeadTemperature is an informational sales classification. The control
// logic never branches on it.
type LeadTemperature string

const (
	LeadHot  LeadTemperature = "hot"
	LeadWarm LeadTemperature = "warm"
	LeadCold LeadTemperature = "cold"
)

// Conversation is one customer thread with a single current owner.
type Conversation struct {
	ID              uint              `json:"-"`
	PublicID        string            `json:"id"`
	ContactNumber   string            `json:"contact_number"`
	ContactName     string            `json:"contact_name"`
	Status          Status            `json:"status"`
	LeadTemperature LeadTemperature   `json:"lead_temperature,omitempty"`
	AssignedAgentID *uint             `json:"-"`
	AssignedAgent   *string           `json:"assigned_agent_id,omitempty"`
	Source          string            `json:"source,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	ClosedAt        *time.Time        `json:"closed_at,omitempty"`
}

// IsClosed reports whether the conversation reached its terminal state.
func (c *Conversation) IsClosed() bool {
	return c.Status == StatusClosed
}

// NewConversation creates a bot-owned conversation for a customer contact.
func NewConversation(publicID, contactNumber, contactName, source string) *Conversation {
	now := time.Now()
	return &Conversation{
		PublicID:      publicID,
		ContactNumber: contactNumber,
		ContactName:   contactName,
		Status:        StatusBot,
		Source:        source,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// StatusChange describes the target of a compare-and-set transition.
// AssignedAgentID is only honored when To is StatusSeller; every transition
// to another status clears the assignment so that the agent-assignment
// invariant holds after each swap.
type StatusChange struct {
	To              Status
	AssignedAgentID *uint
	ClosedAt        *time.Time
}

type Filter struct {
	ID              *uint
	PublicID        *string
	ContactNumber   *string
	Status          *Status
	AssignedAgentID *uint
}

type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByFilter(ctx context.Context, filter Filter, pagination *query.Pagination) ([]*Conversation, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	// FindOpenByContactNumber returns the newest non-closed conversation for
	// a customer contact, or nil when every thread is closed.
	FindOpenByContactNumber(ctx context.Context, contactNumber string) (*Conversation, error)
	Update(ctx context.Context, conv *Conversation) error

	// CompareAndSetStatus atomically applies change when the stored status
	// equals expected. It returns the row as persisted, whether the swap was
	// applied, and any persistence error. A false swap with a nil error means
	// the stored status no longer matched expected.
	CompareAndSetStatus(ctx context.Context, id uint, expected Status, change StatusChange) (*Conversation, bool, error)
}
