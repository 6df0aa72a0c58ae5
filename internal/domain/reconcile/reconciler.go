package reconcile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/domain/agent"
	"leadchat-server/services/routing-api/internal/domain/agentlog"
	"leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/domain/message"
	"leadchat-server/services/routing-api/internal/utils/idgen"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// Report summarizes one reconciliation pass.
type Report struct {
	Scanned int `json:"scanned"`
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Reconciler projects agent-channel log entries into the unified timeline.
// It is idempotent: the transport message id is the dedup key, so re-running
// a pass over the same entries writes nothing new.
type Reconciler struct {
	logs          agentlog.Repository
	messages      message.Repository
	conversations conversation.Repository
	agents        agent.Repository
	logger        zerolog.Logger
}

func NewReconciler(logs agentlog.Repository, messages message.Repository, conversations conversation.Repository, agents agent.Repository, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		logs:          logs,
		messages:      messages,
		conversations: conversations,
		agents:        agents,
		logger:        logger,
	}
}

// Reconcile scans up to batchLimit channel entries, oldest first with no
// time bound, and synchronizes the ones missing from the timeline. One bad
// row never aborts the batch; its failure is counted and the loop moves on.
func (r *Reconciler) Reconcile(ctx context.Context, batchLimit int) (*Report, error) {
	if batchLimit <= 0 {
		batchLimit = 100
	}

	entries, err := r.logs.ListOldest(ctx, batchLimit)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to read agent-channel log")
	}

	report := &Report{}
	for _, entry := range entries {
		report.Scanned++
		switch r.reconcileEntry(ctx, entry) {
		case outcomeSynced:
			report.Synced++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
		}
	}

	r.logger.Info().
		Int("scanned", report.Scanned).
		Int("synced", report.Synced).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("reconciliation pass finished")
	return report, nil
}

type outcome int

const (
	outcomeSynced outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (r *Reconciler) reconcileEntry(ctx context.Context, entry *agentlog.Entry) outcome {
	if strings.TrimSpace(entry.TransportMessageID) == "" {
		// Without a dedup key the entry cannot be safely projected.
		r.logger.Warn().Uint("entry_id", entry.ID).Msg("channel entry has no transport message id")
		return outcomeSkipped
	}

	exists, err := r.messages.ExistsByTransportID(ctx, entry.TransportMessageID)
	if err != nil {
		r.logger.Error().Err(err).Uint("entry_id", entry.ID).Msg("failed to probe timeline")
		return outcomeFailed
	}
	if exists {
		return outcomeSkipped
	}

	conversationID, ok := r.resolveConversation(ctx, entry)
	if !ok {
		return outcomeSkipped
	}

	msg, err := r.project(ctx, entry, conversationID)
	if err != nil {
		r.logger.Error().Err(err).Uint("entry_id", entry.ID).Msg("failed to build timeline projection")
		return outcomeFailed
	}

	stored, err := r.messages.CreateIfAbsent(ctx, msg)
	if err != nil {
		r.logger.Error().Err(err).Uint("entry_id", entry.ID).Msg("failed to insert reconciled message")
		return outcomeFailed
	}
	if !stored {
		// A concurrent direct send won the insert race. The uniqueness
		// guarantee already holds, nothing left to do.
		return outcomeSkipped
	}
	return outcomeSynced
}

// resolveConversation finds the timeline the entry belongs to. Entries
// recorded without a conversation id are matched through the customer
// contact; an unresolvable entry is left in place for a later pass.
func (r *Reconciler) resolveConversation(ctx context.Context, entry *agentlog.Entry) (uint, bool) {
	if entry.ConversationID != nil {
		return *entry.ConversationID, true
	}

	if entry.ContactNumber == "" {
		r.logger.Warn().Uint("entry_id", entry.ID).Msg("channel entry has no conversation reference")
		return 0, false
	}
	conv, err := r.conversations.FindOpenByContactNumber(ctx, entry.ContactNumber)
	if err != nil || conv == nil {
		r.logger.Warn().Err(err).Uint("entry_id", entry.ID).Str("contact", entry.ContactNumber).Msg("could not resolve conversation for channel entry")
		return 0, false
	}
	return conv.ID, true
}

// project maps one channel entry onto a timeline message. Attribution
// follows the direction flag, content falls back to the media placeholder,
// and the origin timestamp is copied verbatim so the timeline keeps origin
// ordering.
func (r *Reconciler) project(ctx context.Context, entry *agentlog.Entry, conversationID uint) (*message.Message, error) {
	publicID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, err
	}

	senderType := message.SenderClient
	senderName := "Customer"
	if entry.Direction == agentlog.FromAgent {
		senderType = message.SenderAgent
		senderName = r.agentName(ctx, entry.AgentID)
	}

	content := entry.Content
	kind := message.KindText
	if strings.TrimSpace(content) == "" {
		content = message.MediaPlaceholder
		if entry.MediaKind != "" {
			kind = message.Kind(entry.MediaKind)
		}
	}

	transportID := entry.TransportMessageID
	return &message.Message{
		PublicID:           publicID,
		ConversationID:     conversationID,
		SenderType:         senderType,
		SenderName:         senderName,
		Content:            content,
		Kind:               kind,
		TransportMessageID: &transportID,
		Status:             message.StateReceived,
		CreatedAt:          entry.SentAt,
	}, nil
}

func (r *Reconciler) agentName(ctx context.Context, agentID uint) string {
	a, err := r.agents.FindByID(ctx, agentID)
	if err != nil || a == nil {
		return "Agent"
	}
	return a.Name
}
