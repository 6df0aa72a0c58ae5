package delivery

import (
	"context"
	"time"
)

// ContextType classifies why an outbound delivery was attempted.
type ContextType string

const (
	ContextAlert        ContextType = "alert"
	ContextNotification ContextType = "notification"
	ContextEscalation   ContextType = "escalation"
	ContextMessage      ContextType = "message"
	ContextResend       ContextType = "resend"
)

// Status is the outcome recorded for one delivery attempt.
type Status string

const (
	StatusSent Status = "sent"
	// StatusFailed marks an attempt the transport rejected.
	StatusFailed Status = "failed"
	// StatusCriticalError marks an attempt that failed before or after the
	// transport call (missing credential, persistence fault).
	StatusCriticalError Status = "critical_error"
)

// Entry is the audit record written for every outbound attempt. A
// notification entry whose transport message id is still null is eligible
// for resend while it sits inside the lookback window.
type Entry struct {
	ID                 uint              `json:"-"`
	PublicID           string            `json:"id"`
	SenderID           string            `json:"sender_id"`
	Recipient          string            `json:"recipient"`
	Content            string            `json:"content"`
	ContextType        ContextType       `json:"context_type"`
	TransportMessageID *string           `json:"transport_message_id,omitempty"`
	Status             Status            `json:"status"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	FindByID(ctx context.Context, id uint) (*Entry, error)
	// ListUnacknowledged returns entries of the given context with a null
	// transport message id created at or after since, oldest first.
	ListUnacknowledged(ctx context.Context, contextType ContextType, since time.Time) ([]*Entry, error)
}

// Credential is a transport identity: the gateway token to authenticate
// with and the channel number to send from.
type Credential struct {
	Token  string
	Number string
}

// CredentialResolver maps a sender identity to its transport credential.
// Implemented by the agent service; the reserved identity "system" resolves
// to the service-wide gateway credential.
type CredentialResolver interface {
	ResolveCredential(ctx context.Context, senderID string) (*Credential, error)
}

// SystemSender is the sender identity for service-originated notifications.
const SystemSender = "system"

// SendRequest is what the transport needs for one outbound message.
type SendRequest struct {
	Token     string
	Number    string
	Recipient string
	Content   string
}

// Transport is the external messaging gateway. Send returns the externally
// issued message id that acknowledges acceptance.
type Transport interface {
	Send(ctx context.Context, req SendRequest) (string, error)
}
