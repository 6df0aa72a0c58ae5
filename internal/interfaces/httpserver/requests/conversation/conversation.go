package conversation

// ListConversationsQueryParams filters the conversation listing.
type ListConversationsQueryParams struct {
	Status        *string `form:"status"`
	ContactNumber *string `form:"contact_number"`
	AgentID       *string `form:"agent_id"`
}

// TakeControlRequest moves a conversation to manual handling. The expected
// status is what the caller last saw; a stale value is rejected instead of
// silently overriding a concurrent transition.
type TakeControlRequest struct {
	ExpectedStatus string `json:"expected_status" binding:"required"`
	Actor          string `json:"actor" binding:"required"`
}

// TransferRequest hands a manually-held conversation to a sales agent.
type TransferRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
	Actor   string `json:"actor" binding:"required"`
}

// CloseRequest closes a conversation.
type CloseRequest struct {
	Actor string `json:"actor" binding:"required"`
}

// SendMessageRequest appends an outbound message to the timeline.
type SendMessageRequest struct {
	Sender     string `json:"sender" binding:"required"`
	SenderName string `json:"sender_name"`
	AgentID    string `json:"agent_id"`
	Content    string `json:"content" binding:"required"`
	Kind       string `json:"kind"`
}
