package message

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/domain/query"
	"leadchat-server/services/routing-api/internal/utils/idgen"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// Dispatcher pushes an outbound message through the delivery layer and
// returns the transport acknowledgment id. Implemented by the delivery
// service.
type Dispatcher interface {
	DispatchMessage(ctx context.Context, conv *conversation.Conversation, content string, metadata map[string]string) (string, error)
}

// Service owns the unified conversation timeline.
type Service struct {
	repo       Repository
	control    *conversation.ControlService
	dispatcher Dispatcher
	logger     zerolog.Logger
}

func NewService(repo Repository, control *conversation.ControlService, dispatcher Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		control:    control,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SendInput describes an outbound send request.
type SendInput struct {
	ConversationPublicID string
	Sender               SenderType
	SenderName           string
	// AgentID identifies the calling agent for seller-owned conversations.
	AgentID *uint
	Content string
	Kind    Kind
}

// Send appends an outbound message to the timeline and dispatches it through
// the transport. The caller must currently own the conversation; anyone else
// is rejected with a control error before anything is written.
//
// The row is persisted in the sending state before the transport call, so an
// in-flight message is an explicit value with its own id rather than
// implicit caller state. The durable write settles it to sent or failed.
func (s *Service) Send(ctx context.Context, input SendInput) (*Message, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message content is required", nil, "1e6b4f7d-9c8a-4e3f-0b5c-6d7e8f9a0b1c")
	}
	if !input.Sender.IsValid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "unknown sender type", nil, "2f7c5a8e-0d9b-4f4a-1c6d-7e8f9a0b1c2d")
	}

	conv, err := s.control.GetByPublicID(ctx, input.ConversationPublicID)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnership(ctx, conv, input); err != nil {
		return nil, err
	}

	publicID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message ID")
	}

	kind := input.Kind
	if kind == "" {
		kind = KindText
	}

	msg := &Message{
		PublicID:       publicID,
		ConversationID: conv.ID,
		SenderType:     input.Sender,
		SenderName:     input.SenderName,
		Content:        input.Content,
		Kind:           kind,
		Status:         StateSending,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist outbound message")
	}

	transportID, err := s.dispatcher.DispatchMessage(ctx, conv, input.Content, map[string]string{
		"message_id":  msg.PublicID,
		"sender_type": string(input.Sender),
	})
	if err != nil {
		msg.Status = StateFailed
		if updateErr := s.repo.Update(ctx, msg); updateErr != nil {
			s.logger.Error().Err(updateErr).Str("message_id", msg.PublicID).Msg("failed to mark message failed")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "transport rejected outbound message")
	}

	msg.TransportMessageID = &transportID
	msg.Status = StateSent
	if err := s.repo.Update(ctx, msg); err != nil {
		// The transport accepted the message. Surface the bookkeeping
		// failure but keep the in-memory row consistent with reality.
		return msg, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record transport acknowledgment")
	}

	if s.isHumanSender(input.Sender) {
		if _, err := s.control.RecordOutbound(ctx, conv, input.SenderName); err != nil {
			s.logger.Warn().Err(err).Str("conversation_id", conv.PublicID).Msg("failed to record outbound control activity")
		}
	}

	return msg, nil
}

// checkOwnership enforces the send gate: the conversation status must match
// the caller's role.
func (s *Service) checkOwnership(ctx context.Context, conv *conversation.Conversation, input SendInput) error {
	switch input.Sender {
	case SenderOperator, SenderAdmin:
		if conv.Status != conversation.StatusManual {
			return s.controlRequired(ctx, conv, input.Sender)
		}
	case SenderAgent:
		if conv.Status != conversation.StatusSeller {
			return s.controlRequired(ctx, conv, input.Sender)
		}
		if input.AgentID == nil || conv.AssignedAgentID == nil || *input.AgentID != *conv.AssignedAgentID {
			return s.controlRequired(ctx, conv, input.Sender)
		}
	case SenderBot:
		if conv.Status != conversation.StatusBot {
			return s.controlRequired(ctx, conv, input.Sender)
		}
	case SenderClient:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "client messages arrive through the inbound webhook", nil, "3a8d6b9f-1e0c-4a5b-2d7e-8f9a0b1c2d3e")
	}
	return nil
}

func (s *Service) controlRequired(ctx context.Context, conv *conversation.Conversation, sender SenderType) error {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeControlRequired, "caller does not own this conversation", nil, "4b9e7c0a-2f1d-4b6c-3e8f-9a0b1c2d3e4f", map[string]any{
		"conversation_status": string(conv.Status),
		"sender_type":         string(sender),
	})
}

func (s *Service) isHumanSender(sender SenderType) bool {
	switch sender {
	case SenderOperator, SenderAgent, SenderAdmin:
		return true
	case SenderClient, SenderBot:
		return false
	}
	return false
}

// InboundEvent is the normalized shape handed over by the webhook boundary.
// Vendor payload parsing happens upstream.
type InboundEvent struct {
	SenderContact      string
	SenderName         string
	Content            string
	Kind               Kind
	TransportMessageID string
	Timestamp          time.Time
	Source             string
}

// HandleInbound routes a customer event into the timeline. Duplicate
// transport message ids are collapsed to the first delivery, so webhook
// retries are harmless. It returns the stored message and whether this call
// wrote it; a nil message with stored=false means the event was a duplicate.
func (s *Service) HandleInbound(ctx context.Context, event InboundEvent) (*Message, bool, error) {
	if strings.TrimSpace(event.SenderContact) == "" {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "sender contact is required", nil, "5c0f8d1b-3a2e-4c7d-4f9a-0b1c2d3e4f5a")
	}

	conv, created, err := s.control.RecordInbound(ctx, event.SenderContact, event.SenderName, event.Source)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info().
			Str("conversation_id", conv.PublicID).
			Str("source", event.Source).
			Msg("conversation opened by inbound message")
	}

	publicID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message ID")
	}

	content := event.Content
	kind := event.Kind
	if kind == "" {
		kind = KindText
	}
	if strings.TrimSpace(content) == "" {
		content = MediaPlaceholder
	}

	senderName := event.SenderName
	if senderName == "" {
		senderName = "Customer"
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	msg := &Message{
		PublicID:       publicID,
		ConversationID: conv.ID,
		SenderType:     SenderClient,
		SenderName:     senderName,
		Content:        content,
		Kind:           kind,
		Status:         StateReceived,
		CreatedAt:      timestamp,
	}
	if event.TransportMessageID != "" {
		transportID := event.TransportMessageID
		msg.TransportMessageID = &transportID
	}

	stored, err := s.repo.CreateIfAbsent(ctx, msg)
	if err != nil {
		return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist inbound message")
	}
	if !stored {
		s.logger.Debug().
			Str("transport_message_id", event.TransportMessageID).
			Msg("inbound message already in timeline")
		return nil, false, nil
	}

	return msg, true, nil
}

// Timeline lists a conversation's messages with a total count.
func (s *Service) Timeline(ctx context.Context, conversationPublicID string, pagination *query.Pagination) ([]*Message, int64, error) {
	conv, err := s.control.GetByPublicID(ctx, conversationPublicID)
	if err != nil {
		return nil, 0, err
	}

	messages, err := s.repo.ListByConversation(ctx, conv.ID, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list messages")
	}
	total, err := s.repo.CountByConversation(ctx, conv.ID)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count messages")
	}
	return messages, total, nil
}
