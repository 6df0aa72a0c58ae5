package agentlog

import (
	"context"
	"strings"
	"time"

	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// Direction flags who originated a channel entry.
type Direction string

const (
	// FromAgent marks traffic the agent sent through its own binding.
	FromAgent Direction = "from_agent"
	// FromCustomer marks customer replies delivered to the agent's binding.
	FromCustomer Direction = "from_customer"
)

// Entry is one row of an agent's channel delivery log. The store is
// append-only: the reconciliation engine reads and projects entries into the
// unified timeline but never mutates them.
type Entry struct {
	ID                 uint      `json:"-"`
	ConversationID     *uint     `json:"-"`
	AgentID            uint      `json:"-"`
	TransportMessageID string    `json:"transport_message_id"`
	Direction          Direction `json:"direction"`
	Content            string    `json:"content"`
	// MediaKind carries the payload classification when the entry has no
	// text (image/document/audio/video). Empty means text.
	MediaKind     string    `json:"media_kind,omitempty"`
	ContactNumber string    `json:"contact_number"`
	SentAt        time.Time `json:"sent_at"`
}

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	// ListOldest returns up to limit entries ordered by sent-at ascending.
	ListOldest(ctx context.Context, limit int) ([]*Entry, error)
	Count(ctx context.Context) (int64, error)
}

// RecordInput is what the agent-channel webhook hands over.
type RecordInput struct {
	AgentID            uint
	ConversationID     *uint
	TransportMessageID string
	Direction          Direction
	Content            string
	MediaKind          string
	ContactNumber      string
	SentAt             time.Time
}

// Service appends agent-channel traffic to the delivery log.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one channel entry. The timestamp defaults to now only when
// the origin did not report one; ordering in the unified timeline follows
// these timestamps, so origin values are kept verbatim.
func (s *Service) Record(ctx context.Context, input RecordInput) (*Entry, error) {
	if strings.TrimSpace(input.TransportMessageID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "transport message id is required", nil, "3e8b6f9d-1c0a-4e5f-2b7c-8d9e0f1a2b3c")
	}
	if input.Direction != FromAgent && input.Direction != FromCustomer {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "unknown direction", nil, "4f9c7a0e-2d1b-4f6a-3c8d-9e0f1a2b3c4d")
	}

	sentAt := input.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	entry := &Entry{
		ConversationID:     input.ConversationID,
		AgentID:            input.AgentID,
		TransportMessageID: input.TransportMessageID,
		Direction:          input.Direction,
		Content:            input.Content,
		MediaKind:          input.MediaKind,
		ContactNumber:      input.ContactNumber,
		SentAt:             sentAt,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append agent-channel entry")
	}
	return entry, nil
}
