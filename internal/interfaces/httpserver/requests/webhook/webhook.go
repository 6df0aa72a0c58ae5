package webhook

import "time"

// InboundMessageRequest is the normalized customer-message event posted by
// the gateway adapter. Vendor payload parsing happens upstream; this service
// only sees the normalized shape.
type InboundMessageRequest struct {
	ContactNumber      string    `json:"contact_number" binding:"required"`
	ContactName        string    `json:"contact_name"`
	Content            string    `json:"content"`
	Kind               string    `json:"kind"`
	TransportMessageID string    `json:"transport_message_id" binding:"required"`
	Timestamp          time.Time `json:"timestamp"`
	Source             string    `json:"source"`
}

// AgentChannelRequest is one delivery-log event from an agent's own channel
// binding.
type AgentChannelRequest struct {
	AgentID            string    `json:"agent_id" binding:"required"`
	ConversationID     *string   `json:"conversation_id"`
	TransportMessageID string    `json:"transport_message_id" binding:"required"`
	Direction          string    `json:"direction" binding:"required"`
	Content            string    `json:"content"`
	MediaKind          string    `json:"media_kind"`
	ContactNumber      string    `json:"contact_number"`
	SentAt             time.Time `json:"sent_at"`
}
