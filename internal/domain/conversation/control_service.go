package conversation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/domain/query"
	"leadchat-server/services/routing-api/internal/utils/idgen"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// AgentDirectory resolves active sales agents for transfer requests.
// Implemented by the agent service.
type AgentDirectory interface {
	ResolveActiveAgent(ctx context.Context, agentPublicID string) (agentID uint, agentName string, err error)
}

// ControlChange describes a completed ownership transition for notification
// and audit consumers.
type ControlChange struct {
	Conversation *Conversation
	From         Status
	To           Status
	Actor        string
}

// ControlNotifier delivers best-effort control-change notifications. Errors
// are logged, never surfaced to the transition caller.
type ControlNotifier interface {
	NotifyControlChange(ctx context.Context, change ControlChange) error
}

// ControlService owns the conversation ownership state machine.
type ControlService struct {
	repo     Repository
	agents   AgentDirectory
	notifier ControlNotifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewControlService creates a new control service. notifier may be nil.
func NewControlService(repo Repository, agents AgentDirectory, notifier ControlNotifier, logger zerolog.Logger) *ControlService {
	return &ControlService{
		repo:     repo,
		agents:   agents,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// GetByPublicID retrieves a conversation by its public id.
func (s *ControlService) GetByPublicID(ctx context.Context, publicID string) (*Conversation, error) {
	conv, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	return conv, nil
}

// FindByFilter lists conversations with a total count.
func (s *ControlService) FindByFilter(ctx context.Context, filter Filter, pagination *query.Pagination) ([]*Conversation, int64, error) {
	conversations, err := s.repo.FindByFilter(ctx, filter, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count conversations")
	}
	return conversations, total, nil
}

// TakeControl moves a conversation to manual ownership on behalf of a human
// operator. The caller must state the status it expects to find; a stale
// expectation loses the race and is rejected, never silently overwritten.
func (s *ControlService) TakeControl(ctx context.Context, publicID string, expected Status, actor string) (*Conversation, error) {
	if !expected.IsValid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "unknown expected status", nil, "6f1c9a2e-4d3b-4f8a-9c0d-1e2f3a4b5c6d")
	}
	if expected == StatusClosed {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition, "conversation is closed", nil, "7a2d0b3f-5e4c-4a9b-8d1e-2f3a4b5c6d7e")
	}

	conv, err := s.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, conv, expected, StatusChange{To: StatusManual}, actor)
}

// TransferToAgent hands a manually controlled conversation to a specific
// active sales agent.
func (s *ControlService) TransferToAgent(ctx context.Context, publicID, agentPublicID, actor string) (*Conversation, error) {
	conv, err := s.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	agentID, agentName, err := s.agents.ResolveActiveAgent(ctx, agentPublicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "transfer target is not an active agent")
	}

	updated, err := s.transition(ctx, conv, StatusManual, StatusChange{To: StatusSeller, AssignedAgentID: &agentID}, actor)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("conversation_id", updated.PublicID).
		Str("agent", agentName).
		Msg("conversation transferred to agent")
	return updated, nil
}

// Close moves a conversation to the terminal closed status. Closing an
// already closed conversation is a no-op.
func (s *ControlService) Close(ctx context.Context, publicID, actor string) (*Conversation, error) {
	conv, err := s.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if conv.IsClosed() {
		return conv, nil
	}

	closedAt := s.now()
	updated, swapped, err := s.repo.CompareAndSetStatus(ctx, conv.ID, conv.Status, StatusChange{To: StatusClosed, ClosedAt: &closedAt})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to close conversation")
	}
	if !swapped {
		// Another caller moved the row first. If it ended closed the outcome
		// is the one we wanted.
		if updated != nil && updated.IsClosed() {
			return updated, nil
		}
		return nil, s.classifyFailedSwap(ctx, updated, conv.Status)
	}

	s.notify(conv, updated, actor)
	return updated, nil
}

// RecordInbound registers a customer message arrival for control purposes.
// First contact creates a bot-owned conversation; an inbound message while a
// conversation sits in manual control moves it to waiting. It returns the
// conversation and whether it was created by this call.
func (s *ControlService) RecordInbound(ctx context.Context, contactNumber, contactName, source string) (*Conversation, bool, error) {
	conv, err := s.repo.FindOpenByContactNumber(ctx, contactNumber)
	if err != nil {
		return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve conversation by contact")
	}

	if conv == nil {
		publicID, err := idgen.GenerateSecureID("conv", 16)
		if err != nil {
			return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate conversation ID")
		}
		conv = NewConversation(publicID, contactNumber, contactName, source)
		if err := s.repo.Create(ctx, conv); err != nil {
			return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
		}
		return conv, true, nil
	}

	if conv.Status == StatusManual {
		updated, swapped, err := s.repo.CompareAndSetStatus(ctx, conv.ID, StatusManual, StatusChange{To: StatusWaiting})
		if err != nil {
			return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to mark conversation waiting")
		}
		if swapped {
			s.notify(conv, updated, "customer")
			return updated, false, nil
		}
		// Lost the race to a concurrent transition. The message flow does
		// not care which owner won, keep the fresher row.
		if updated != nil {
			conv = updated
		}
	}

	return conv, false, nil
}

// RecordOutbound registers an outbound human message for control purposes.
// Any outbound human message while the conversation waits moves it back to
// manual.
func (s *ControlService) RecordOutbound(ctx context.Context, conv *Conversation, actor string) (*Conversation, error) {
	if conv.Status != StatusWaiting {
		return conv, nil
	}

	updated, swapped, err := s.repo.CompareAndSetStatus(ctx, conv.ID, StatusWaiting, StatusChange{To: StatusManual})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resume manual control")
	}
	if !swapped {
		if updated != nil {
			return updated, nil
		}
		return conv, nil
	}

	s.notify(conv, updated, actor)
	return updated, nil
}

// transition applies a compare-and-set move and classifies a failed swap.
func (s *ControlService) transition(ctx context.Context, conv *Conversation, expected Status, change StatusChange, actor string) (*Conversation, error) {
	if conv.IsClosed() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition, "conversation is closed", nil, "8b3e1c4a-6f5d-4b0c-9e2f-3a4b5c6d7e8f")
	}

	updated, swapped, err := s.repo.CompareAndSetStatus(ctx, conv.ID, expected, change)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to apply status transition")
	}
	if !swapped {
		return nil, s.classifyFailedSwap(ctx, updated, expected)
	}

	s.notify(conv, updated, actor)
	return updated, nil
}

// classifyFailedSwap distinguishes a transition attempted out of the
// terminal state from a plain lost race.
func (s *ControlService) classifyFailedSwap(ctx context.Context, current *Conversation, expected Status) error {
	if current != nil && current.IsClosed() {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition, "conversation is closed", nil, "9c4f2d5b-7a6e-4c1d-8f3a-4b5c6d7e8f9a")
	}

	contextFields := map[string]any{"expected_status": string(expected)}
	if current != nil {
		contextFields["current_status"] = string(current.Status)
	}
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflictingTransition, "conversation status changed since it was read", nil, "0d5a3e6c-8b7f-4d2e-9a4b-5c6d7e8f9a0b", contextFields)
}

// notify dispatches a control-change notification without blocking or
// failing the transition that produced it. The delivery layer keeps its own
// retry path for entries that never get acknowledged.
func (s *ControlService) notify(before, after *Conversation, actor string) {
	if s.notifier == nil || after == nil {
		return
	}

	change := ControlChange{
		Conversation: after,
		From:         before.Status,
		To:           after.Status,
		Actor:        actor,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyControlChange(ctx, change); err != nil {
			s.logger.Warn().
				Err(err).
				Str("conversation_id", after.PublicID).
				Str("from", string(change.From)).
				Str("to", string(change.To)).
				Msg("control-change notification failed")
		}
	}()
}
