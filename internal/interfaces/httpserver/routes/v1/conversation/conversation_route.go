package conversation

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"leadchat-server/services/routing-api/internal/domain/agent"
	domainconv "leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/domain/message"
	"leadchat-server/services/routing-api/internal/infrastructure/metrics"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/requests"
	conversationrequests "leadchat-server/services/routing-api/internal/interfaces/httpserver/requests/conversation"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/responses"
	conversationresponses "leadchat-server/services/routing-api/internal/interfaces/httpserver/responses/conversation"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type ConversationRoute struct {
	control  *domainconv.ControlService
	messages *message.Service
	agents   *agent.Service
}

func NewConversationRoute(control *domainconv.ControlService, messages *message.Service, agents *agent.Service) *ConversationRoute {
	return &ConversationRoute{
		control:  control,
		messages: messages,
		agents:   agents,
	}
}

func (route *ConversationRoute) RegisterRouter(router gin.IRouter) {
	conversations := router.Group("/conversations")
	conversations.GET("", route.listConversations)
	conversations.GET("/:conv_public_id", route.getConversation)
	conversations.POST("/:conv_public_id/take-control", route.takeControl)
	conversations.POST("/:conv_public_id/transfer", route.transfer)
	conversations.POST("/:conv_public_id/close", route.closeConversation)
	conversations.GET("/:conv_public_id/messages", route.listMessages)
	conversations.POST("/:conv_public_id/messages", route.sendMessage)
}

// listConversations godoc
// @Summary List conversations
// @Description List conversations with optional status, contact and agent filters.
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by control status"
// @Param contact_number query string false "Filter by customer contact number"
// @Param agent_id query string false "Filter by assigned agent public ID"
// @Param limit query int false "Maximum number of conversations to return"
// @Param after query int false "Return conversations after the given numeric cursor"
// @Param order query string false "Sort order (asc or desc)"
// @Success 200 {object} conversationresponses.ConversationListResponse "Successfully retrieved conversations"
// @Failure 400 {object} responses.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized - missing or invalid service token"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/conversations [get]
func (route *ConversationRoute) listConversations(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	var params conversationrequests.ListConversationsQueryParams
	if err := reqCtx.ShouldBindQuery(&params); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid query parameters", "82f55cfa-a72a-4a6d-b9db-4e5f6a7b8c99")
		return
	}

	pagination, err := requests.GetPaginationFromQuery(reqCtx)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to process pagination")
		return
	}

	filter, err := route.buildFilter(reqCtx, params)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to build filter")
		return
	}

	conversations, total, err := route.control.FindByFilter(ctx, filter, pagination)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to list conversations")
		return
	}

	reqCtx.JSON(http.StatusOK, conversationresponses.NewConversationListResponse(conversations, total))
}

func (route *ConversationRoute) buildFilter(reqCtx *gin.Context, params conversationrequests.ListConversationsQueryParams) (domainconv.Filter, error) {
	ctx := reqCtx.Request.Context()
	filter := domainconv.Filter{}

	if params.Status != nil {
		status := domainconv.Status(strings.ToLower(strings.TrimSpace(*params.Status)))
		if !status.IsValid() {
			return filter, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeValidation, "unknown status filter", nil, "93a66d0a-b83b-4b7e-ca0c-5f6a7b8c9d00")
		}
		filter.Status = &status
	}
	if params.ContactNumber != nil && strings.TrimSpace(*params.ContactNumber) != "" {
		contact := strings.TrimSpace(*params.ContactNumber)
		filter.ContactNumber = &contact
	}
	if params.AgentID != nil && strings.TrimSpace(*params.AgentID) != "" {
		a, err := route.agents.GetByPublicID(ctx, strings.TrimSpace(*params.AgentID))
		if err != nil {
			return filter, err
		}
		agentID := a.ID
		filter.AssignedAgentID = &agentID
	}
	return filter, nil
}

// getConversation godoc
// @Summary Get a conversation
// @Description Retrieve a single conversation by its public ID.
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Param conv_public_id path string true "Conversation public ID"
// @Success 200 {object} conversationresponses.ConversationResponse "Successfully retrieved conversation"
// @Failure 404 {object} responses.ErrorResponse "Conversation not found"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/conversations/{conv_public_id} [get]
func (route *ConversationRoute) getConversation(reqCtx *gin.Context) {
	conv, err := route.control.GetByPublicID(reqCtx.Request.Context(), reqCtx.Param("conv_public_id"))
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to get conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, conversationresponses.NewConversationResponse(conv))
}

// takeControl godoc
// @Summary Take manual control of a conversation
// @Description Move a conversation to manual ownership. The caller states the status it expects; a stale expectation is rejected with a conflict.
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conv_public_id path string true "Conversation public ID"
// @Param request body conversationrequests.TakeControlRequest true "Expected status and acting operator"
// @Success 200 {object} conversationresponses.ConversationResponse "Conversation now under manual control"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body"
// @Failure 409 {object} responses.ErrorResponse "Conversation status changed since it was read"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/conversations/{conv_public_id}/take-control [post]
func (route *ConversationRoute) takeControl(reqCtx *gin.Context) {
	var req conversationrequests.TakeControlRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "a4b77e1b-c94c-4c8f-db1d-6a7b8c9d0e11")
		return
	}

	conv, err := route.control.TakeControl(reqCtx.Request.Context(), reqCtx.Param("conv_public_id"), domainconv.Status(req.ExpectedStatus), req.Actor)
	metrics.RecordTransition(string(domainconv.StatusManual), transitionOutcome(err))
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to take control")
		return
	}
	reqCtx.JSON(http.StatusOK, conversationresponses.NewConversationResponse(conv))
}

// transfer godoc
// @Summary Transfer a conversation to a sales agent
// @Description Hand a manually controlled conversation to a specific active sales agent.
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conv_public_id path string true "Conversation public ID"
// @Param request body conversationrequests.TransferRequest true "Target agent and acting operator"
// @Success 200 {object} conversationresponses.ConversationResponse "Conversation now owned by the agent"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body or inactive agent"
// @Failure 409 {object} responses.ErrorResponse "Conversation status changed since it was read"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/conversations/{conv_public_id}/transfer [post]
func (route *ConversationRoute) transfer(reqCtx *gin.Context) {
	var req conversationrequests.TransferRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "b5c88f2c-da5d-4d9a-ec2e-7b8c9d0e1f22")
		return
	}

	conv, err := route.control.TransferToAgent(reqCtx.Request.Context(), reqCtx.Param("conv_public_id"), req.AgentID, req.Actor)
	metrics.RecordTransition(string(domainconv.StatusSeller), transitionOutcome(err))
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to transfer conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, conversationresponses.NewConversationResponse(conv))
}

// closeConversation godoc
// @Summary Close a conversation
// @Description Move a conversation to the terminal closed status. Closing an already closed conversation succeeds.
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conv_public_id path string true "Conversation public ID"
// @Param request body conversationrequests.CloseRequest true "Acting operator"
// @Success 200 {object} conversationresponses.ConversationResponse "Conversation closed"
// @Failure 404 {object} responses.ErrorResponse "Conversation not found"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/conversations/{conv_public_id}/close [post]
func (route *ConversationRoute) closeConversation(reqCtx *gin.Context) {
	var req conversationrequests.CloseRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "c6d99a3d-eb6e-4eab-fd3f-8c9d0e1f2a33")
		return
	}

	conv, err := route.control.Close(reqCtx.Request.Context(), reqCtx.Param("conv_public_id"), req.Actor)
	metrics.RecordTransition(string(domainconv.StatusClosed), transitionOutcome(err))
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to close conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, conversationresponses.NewConversationResponse(conv))
}

// listMessages godoc
// @Summary List a conversation's timeline
// @Description List the unified message timeline of a conversation, ordered by origin timestamp.
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Param conv_public_id path string true "Conversation public ID"
// @Param limit query int false "Maximum number of messages to return"
// @Param after query int false "Return messages after the given numeric cursor"
// @Param order query string false "Sort order (asc or desc)"
// @Success 200 {object} conversationresponses.MessageListResponse "Successfully retrieved messages"
// @Failure 404 {object} responses.ErrorResponse "Conversation not found"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/conversations/{conv_public_id}/messages [get]
func (route *ConversationRoute) listMessages(reqCtx *gin.Context) {
	pagination, err := requests.GetPaginationFromQuery(reqCtx)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to process pagination")
		return
	}

	messages, total, err := route.messages.Timeline(reqCtx.Request.Context(), reqCtx.Param("conv_public_id"), pagination)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to list messages")
		return
	}
	reqCtx.JSON(http.StatusOK, conversationresponses.NewMessageListResponse(messages, total))
}

// sendMessage godoc
// @Summary Send an outbound message
// @Description Append an outbound message to the timeline and dispatch it through the gateway. The sender must currently own the conversation.
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conv_public_id path string true "Conversation public ID"
// @Param request body conversationrequests.SendMessageRequest true "Message sender and content"
// @Success 201 {object} conversationresponses.MessageResponse "Message accepted by the transport"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body"
// @Failure 403 {object} responses.ErrorResponse "Sender does not own the conversation"
// @Failure 502 {object} responses.ErrorResponse "Transport rejected the message"
// @Router /v1/conversations/{conv_public_id}/messages [post]
func (route *ConversationRoute) sendMessage(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()

	var req conversationrequests.SendMessageRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "d7eaab4e-fc7f-4fbc-ae4a-9d0e1f2a3b44")
		return
	}

	input := message.SendInput{
		ConversationPublicID: reqCtx.Param("conv_public_id"),
		Sender:               message.SenderType(req.Sender),
		SenderName:           req.SenderName,
		Content:              req.Content,
		Kind:                 message.Kind(req.Kind),
	}
	if req.AgentID != "" {
		agentID, _, err := route.agents.ResolveActiveAgent(ctx, req.AgentID)
		if err != nil {
			responses.HandleError(reqCtx, err, "Failed to resolve sending agent")
			return
		}
		input.AgentID = &agentID
	}

	msg, err := route.messages.Send(ctx, input)
	if err != nil {
		metrics.RecordDelivery("message", "failed")
		responses.HandleError(reqCtx, err, "Failed to send message")
		return
	}

	metrics.RecordDelivery("message", "sent")
	reqCtx.JSON(http.StatusCreated, conversationresponses.NewMessageResponse(msg))
}

func transitionOutcome(err error) string {
	if err == nil {
		return "applied"
	}
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflictingTransition) {
		return "conflict"
	}
	return "rejected"
}
