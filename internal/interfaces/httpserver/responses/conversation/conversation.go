package conversation

import (
	"time"

	domainconv "leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/domain/message"
	"leadchat-server/services/routing-api/internal/utils/functional"
)

// ConversationResponse is the API shape of a conversation.
type ConversationResponse struct {
	ID              string     `json:"id"`
	Object          string     `json:"object"`
	ContactNumber   string     `json:"contact_number"`
	ContactName     string     `json:"contact_name"`
	Status          string     `json:"status"`
	LeadTemperature string     `json:"lead_temperature,omitempty"`
	AssignedAgentID *string    `json:"assigned_agent_id,omitempty"`
	Source          string     `json:"source,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
}

// NewConversationResponse converts a domain conversation.
func NewConversationResponse(conv *domainconv.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:              conv.PublicID,
		Object:          "conversation",
		ContactNumber:   conv.ContactNumber,
		ContactName:     conv.ContactName,
		Status:          string(conv.Status),
		LeadTemperature: string(conv.LeadTemperature),
		AssignedAgentID: conv.AssignedAgent,
		Source:          conv.Source,
		CreatedAt:       conv.CreatedAt,
		UpdatedAt:       conv.UpdatedAt,
		ClosedAt:        conv.ClosedAt,
	}
}

// ConversationListResponse pages conversations.
type ConversationListResponse struct {
	Object string                  `json:"object"`
	Data   []*ConversationResponse `json:"data"`
	Total  int64                   `json:"total"`
}

// NewConversationListResponse converts a page of domain conversations.
func NewConversationListResponse(convs []*domainconv.Conversation, total int64) *ConversationListResponse {
	return &ConversationListResponse{
		Object: "list",
		Data:   functional.Map(convs, NewConversationResponse),
		Total:  total,
	}
}

// MessageResponse is the API shape of one timeline entry.
type MessageResponse struct {
	ID                 string    `json:"id"`
	Object             string    `json:"object"`
	SenderType         string    `json:"sender_type"`
	SenderName         string    `json:"sender_name,omitempty"`
	Content            string    `json:"content"`
	Kind               string    `json:"kind"`
	TransportMessageID *string   `json:"transport_message_id,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewMessageResponse converts a domain message.
func NewMessageResponse(msg *message.Message) *MessageResponse {
	return &MessageResponse{
		ID:                 msg.PublicID,
		Object:             "message",
		SenderType:         string(msg.SenderType),
		SenderName:         msg.SenderName,
		Content:            msg.Content,
		Kind:               string(msg.Kind),
		TransportMessageID: msg.TransportMessageID,
		Status:             string(msg.Status),
		CreatedAt:          msg.CreatedAt,
	}
}

// MessageListResponse pages a conversation timeline.
type MessageListResponse struct {
	Object string             `json:"object"`
	Data   []*MessageResponse `json:"data"`
	Total  int64              `json:"total"`
}

// NewMessageListResponse converts a page of timeline entries.
func NewMessageListResponse(msgs []*message.Message, total int64) *MessageListResponse {
	return &MessageListResponse{
		Object: "list",
		Data:   functional.Map(msgs, NewMessageResponse),
		Total:  total,
	}
}
