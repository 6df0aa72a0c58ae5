package message

import (
	"context"
	"time"

	"leadchat-server/services/routing-api/internal/domain/query"
)

// SenderType is a closed set of message authors. Consumers switch over it
// exhaustively; adding a kind means revisiting every switch.
type SenderType string

const (
	SenderClient   SenderType = "client"
	SenderBot      SenderType = "bot"
	SenderOperator SenderType = "operator"
	SenderAgent    SenderType = "agent"
	SenderAdmin    SenderType = "admin"
)

// IsValid reports whether s is one of the known sender types.
func (s SenderType) IsValid() bool {
	switch s {
	case SenderClient, SenderBot, SenderOperator, SenderAgent, SenderAdmin:
		return true
	}
	return false
}

// Kind classifies the message payload.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
)

// DeliveryState tracks a message through the transport lifecycle. Received
// marks rows projected from inbound traffic or reconciliation.
type DeliveryState string

const (
	StateSending   DeliveryState = "sending"
	StateSent      DeliveryState = "sent"
	StateDelivered DeliveryState = "delivered"
	StateRead      DeliveryState = "read"
	StateFailed    DeliveryState = "failed"
	StateReceived  DeliveryState = "received"
)

// MediaPlaceholder stands in for payloads that carry no text. The original
// media reference is not persisted by the origin stores, only the kind
// survives.
const MediaPlaceholder = "[media]"

// Message is one exchange unit in a conversation's unified timeline.
type Message struct {
	ID                 uint          `json:"-"`
	PublicID           string        `json:"id"`
	ConversationID     uint          `json:"-"`
	SenderType         SenderType    `json:"sender_type"`
	SenderName         string        `json:"sender_name"`
	Content            string        `json:"content"`
	Kind               Kind          `json:"kind"`
	TransportMessageID *string       `json:"transport_message_id,omitempty"`
	Status             DeliveryState `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
}

type Filter struct {
	ConversationID     *uint
	SenderType         *SenderType
	TransportMessageID *string
}

type Repository interface {
	Create(ctx context.Context, msg *Message) error
	// CreateIfAbsent inserts msg unless its non-null transport message id is
	// already present in the timeline. It reports whether a row was written.
	// A collision is not an error; the existing row already satisfies the
	// uniqueness guarantee.
	CreateIfAbsent(ctx context.Context, msg *Message) (bool, error)
	ExistsByTransportID(ctx context.Context, transportMessageID string) (bool, error)
	Update(ctx context.Context, msg *Message) error
	ListByConversation(ctx context.Context, conversationID uint, pagination *query.Pagination) ([]*Message, error)
	CountByConversation(ctx context.Context, conversationID uint) (int64, error)
}
