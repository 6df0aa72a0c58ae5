package delivery

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/utils/idgen"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// minPacing is the floor between consecutive resend attempts. The gateway
// throttles senders that burst faster than this.
const minPacing = time.Second

// Service coordinates outbound deliveries and the resend path for
// unacknowledged notifications.
type Service struct {
	repo            Repository
	transport       Transport
	credentials     CredentialResolver
	logger          zerolog.Logger
	notifyRecipient string
	pacing          time.Duration
	sleep           func(time.Duration)
	now             func() time.Time
}

// NewService creates a delivery service. notifyRecipient is the ops channel
// address that receives control-change notifications.
func NewService(repo Repository, transport Transport, credentials CredentialResolver, notifyRecipient string, pacing time.Duration, logger zerolog.Logger) *Service {
	if pacing < minPacing {
		pacing = minPacing
	}
	return &Service{
		repo:            repo,
		transport:       transport,
		credentials:     credentials,
		logger:          logger,
		notifyRecipient: notifyRecipient,
		pacing:          pacing,
		sleep:           time.Sleep,
		now:             time.Now,
	}
}

// SendInput describes one outbound delivery.
type SendInput struct {
	SenderID    string
	Recipient   string
	Content     string
	ContextType ContextType
	Metadata    map[string]string
}

// Send resolves the sender's transport credential, invokes the transport,
// and writes one delivery-log entry for the attempt. The entry is written
// whether the transport accepted or rejected; a transport rejection is also
// surfaced to the caller.
func (s *Service) Send(ctx context.Context, input SendInput) (*Entry, error) {
	senderID := input.SenderID
	if senderID == "" {
		senderID = SystemSender
	}

	cred, err := s.credentials.ResolveCredential(ctx, senderID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve transport credential")
	}
	if cred == nil || cred.Token == "" {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeCredentialMissing, "no transport credential for sender", nil, "6d1a9e2c-4b3f-4d8e-5a0b-1c2d3e4f5a6b", map[string]any{
			"sender_id": senderID,
		})
	}

	entry := &Entry{
		SenderID:    senderID,
		Recipient:   input.Recipient,
		Content:     input.Content,
		ContextType: input.ContextType,
		Metadata:    input.Metadata,
		CreatedAt:   s.now(),
	}
	if publicID, idErr := idgen.GenerateSecureID("dlv", 16); idErr == nil {
		entry.PublicID = publicID
	}

	transportID, sendErr := s.transport.Send(ctx, SendRequest{
		Token:     cred.Token,
		Number:    cred.Number,
		Recipient: input.Recipient,
		Content:   input.Content,
	})
	if sendErr != nil {
		entry.Status = StatusFailed
		if err := s.repo.Create(ctx, entry); err != nil {
			s.logger.Error().Err(err).Str("recipient", input.Recipient).Msg("failed to persist delivery-log entry for rejected send")
		}
		return entry, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeTransportFailure, "transport rejected delivery", sendErr, "7e2b0f3d-5c4a-4e9f-6b1c-2d3e4f5a6b7c", map[string]any{
			"recipient":    input.Recipient,
			"context_type": string(input.ContextType),
		})
	}

	entry.TransportMessageID = &transportID
	entry.Status = StatusSent
	if err := s.repo.Create(ctx, entry); err != nil {
		return entry, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist delivery-log entry")
	}

	return entry, nil
}

// ResendResult is the per-entry outcome of one resend pass.
type ResendResult struct {
	OriginalEntryID    uint    `json:"original_entry_id"`
	Recipient          string  `json:"recipient"`
	Status             Status  `json:"status"`
	TransportMessageID *string `json:"transport_message_id,omitempty"`
	Error              string  `json:"error,omitempty"`
}

// Summary aggregates a resend pass. It is always returned, even when every
// item failed.
type Summary struct {
	TotalProcessed int            `json:"total_processed"`
	SuccessCount   int            `json:"success_count"`
	FailedCount    int            `json:"failed_count"`
	Results        []ResendResult `json:"results"`
}

// ResendFailed re-drives notification entries that never received a
// transport acknowledgment, restricted to the lookback window. Attempts are
// paced at least one second apart. A failure on one entry is recorded in the
// result list and the pass continues; cancellation between entries stops the
// pass cleanly since every attempt commits independently.
func (s *Service) ResendFailed(ctx context.Context, lookback time.Duration) (*Summary, error) {
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	since := s.now().Add(-lookback)

	entries, err := s.repo.ListUnacknowledged(ctx, ContextNotification, since)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list unacknowledged deliveries")
	}

	summary := &Summary{Results: make([]ResendResult, 0, len(entries))}
	for i, original := range entries {
		if i > 0 {
			s.sleep(s.pacing)
		}
		if err := ctx.Err(); err != nil {
			s.logSummary(summary, "resend pass aborted")
			return summary, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "resend pass canceled")
		}

		summary.TotalProcessed++
		result := s.resendOne(ctx, original)
		if result.Status == StatusSent {
			summary.SuccessCount++
		} else {
			summary.FailedCount++
		}
		summary.Results = append(summary.Results, result)
	}

	s.logSummary(summary, "resend pass finished")
	return summary, nil
}

func (s *Service) resendOne(ctx context.Context, original *Entry) ResendResult {
	metadata := make(map[string]string, len(original.Metadata)+2)
	for k, v := range original.Metadata {
		metadata[k] = v
	}
	metadata["original_entry_id"] = strconv.FormatUint(uint64(original.ID), 10)
	metadata["resend_reason"] = "missing_transport_ack"

	entry, err := s.Send(ctx, SendInput{
		SenderID:    original.SenderID,
		Recipient:   original.Recipient,
		Content:     original.Content,
		ContextType: ContextResend,
		Metadata:    metadata,
	})

	result := ResendResult{OriginalEntryID: original.ID, Recipient: original.Recipient}
	switch {
	case err == nil:
		result.Status = StatusSent
		result.TransportMessageID = entry.TransportMessageID
	case platformerrors.IsErrorType(err, platformerrors.ErrorTypeTransportFailure):
		result.Status = StatusFailed
		result.Error = err.Error()
	default:
		result.Status = StatusCriticalError
		result.Error = err.Error()
	}
	return result
}

func (s *Service) logSummary(summary *Summary, msg string) {
	s.logger.Info().
		Int("total_processed", summary.TotalProcessed).
		Int("success_count", summary.SuccessCount).
		Int("failed_count", summary.FailedCount).
		Msg(msg)
}

// DispatchMessage sends a conversation message through the owner's
// credential. Seller-owned conversations send as the assigned agent,
// everything else as the system identity.
func (s *Service) DispatchMessage(ctx context.Context, conv *conversation.Conversation, content string, metadata map[string]string) (string, error) {
	senderID := SystemSender
	if conv.Status == conversation.StatusSeller && conv.AssignedAgent != nil {
		senderID = *conv.AssignedAgent
	}

	entry, err := s.Send(ctx, SendInput{
		SenderID:    senderID,
		Recipient:   conv.ContactNumber,
		Content:     content,
		ContextType: ContextMessage,
		Metadata:    metadata,
	})
	if err != nil {
		return "", err
	}
	if entry.TransportMessageID == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeTransportFailure, "transport returned no message id", nil, "8f3c1a4e-6d5b-4f0a-7c2d-3e4f5a6b7c8d")
	}
	return *entry.TransportMessageID, nil
}

// NotifyControlChange writes an ownership-transition notification to the ops
// channel. Implements the control service's notifier; failures land in the
// delivery log and are re-driven by the resend path.
func (s *Service) NotifyControlChange(ctx context.Context, change conversation.ControlChange) error {
	if s.notifyRecipient == "" {
		return nil
	}

	conv := change.Conversation
	content := fmt.Sprintf("conversation %s moved %s -> %s by %s (customer %s)",
		conv.PublicID, change.From, change.To, change.Actor, conv.ContactName)

	_, err := s.Send(ctx, SendInput{
		SenderID:    SystemSender,
		Recipient:   s.notifyRecipient,
		Content:     content,
		ContextType: ContextNotification,
		Metadata: map[string]string{
			"conversation_id": conv.PublicID,
			"from_status":     string(change.From),
			"to_status":       string(change.To),
			"actor":           change.Actor,
		},
	})
	return err
}
