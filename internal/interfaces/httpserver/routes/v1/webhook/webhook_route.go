package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadchat-server/services/routing-api/internal/domain/agent"
	"leadchat-server/services/routing-api/internal/domain/agentlog"
	"leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/domain/message"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/requests/webhook"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/responses"
	conversationresponses "leadchat-server/services/routing-api/internal/interfaces/httpserver/responses/conversation"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// WebhookRoute receives normalized gateway events. Both endpoints are
// retry-safe: duplicate transport message ids collapse to the first delivery.
type WebhookRoute struct {
	messages *message.Service
	logs     *agentlog.Service
	agents   *agent.Service
	control  *conversation.ControlService
}

func NewWebhookRoute(messages *message.Service, logs *agentlog.Service, agents *agent.Service, control *conversation.ControlService) *WebhookRoute {
	return &WebhookRoute{
		messages: messages,
		logs:     logs,
		agents:   agents,
		control:  control,
	}
}

func (route *WebhookRoute) RegisterRouter(router gin.IRouter) {
	webhooks := router.Group("/webhooks")
	webhooks.POST("/inbound", route.inbound)
	webhooks.POST("/agent-channel", route.agentChannel)
}

// inbound godoc
// @Summary Receive an inbound customer message
// @Description Route a normalized customer message into the unified timeline. First contact opens a bot-owned conversation; retries with the same transport message ID are collapsed.
// @Tags Webhooks API
// @Accept json
// @Produce json
// @Param request body webhook.InboundMessageRequest true "Normalized inbound event"
// @Success 200 {object} map[string]any "Event was a duplicate of an already stored message"
// @Success 201 {object} conversationresponses.MessageResponse "Message stored in the timeline"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/webhooks/inbound [post]
func (route *WebhookRoute) inbound(reqCtx *gin.Context) {
	var req webhook.InboundMessageRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "f90ccd6a-be9b-4bde-ca6c-bf2a3b4c5d66")
		return
	}

	msg, stored, err := route.messages.HandleInbound(reqCtx.Request.Context(), message.InboundEvent{
		SenderContact:      req.ContactNumber,
		SenderName:         req.ContactName,
		Content:            req.Content,
		Kind:               message.Kind(req.Kind),
		TransportMessageID: req.TransportMessageID,
		Timestamp:          req.Timestamp,
		Source:             req.Source,
	})
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to handle inbound message")
		return
	}
	if !stored {
		reqCtx.JSON(http.StatusOK, gin.H{"duplicate": true})
		return
	}

	reqCtx.JSON(http.StatusCreated, conversationresponses.NewMessageResponse(msg))
}

// agentChannel godoc
// @Summary Record agent-channel traffic
// @Description Append one delivery-log entry from an agent's own gateway binding. The reconciliation engine later projects missing entries into the unified timeline.
// @Tags Webhooks API
// @Accept json
// @Produce json
// @Param request body webhook.AgentChannelRequest true "Agent-channel delivery event"
// @Success 201 {object} agentlog.Entry "Entry appended to the channel log"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body or unknown direction"
// @Failure 404 {object} responses.ErrorResponse "Agent or conversation not found"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/webhooks/agent-channel [post]
func (route *WebhookRoute) agentChannel(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	var req webhook.AgentChannelRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "0a1dde7b-cf0c-4cef-db7d-ca3b4c5d6e77")
		return
	}

	a, err := route.agents.GetByPublicID(ctx, req.AgentID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to resolve agent")
		return
	}

	input := agentlog.RecordInput{
		AgentID:            a.ID,
		TransportMessageID: req.TransportMessageID,
		Direction:          agentlog.Direction(req.Direction),
		Content:            req.Content,
		MediaKind:          req.MediaKind,
		ContactNumber:      req.ContactNumber,
		SentAt:             req.SentAt,
	}
	if req.ConversationID != nil && *req.ConversationID != "" {
		conv, err := route.control.GetByPublicID(ctx, *req.ConversationID)
		if err != nil {
			responses.HandleError(reqCtx, err, "Failed to resolve conversation")
			return
		}
		convID := conv.ID
		input.ConversationID = &convID
	}

	entry, err := route.logs.Record(ctx, input)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to record channel entry")
		return
	}

	reqCtx.JSON(http.StatusCreated, entry)
}
