package message

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/domain/query"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type fakeConvRepo struct {
	mu     sync.Mutex
	rows   map[uint]*conversation.Conversation
	nextID uint
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{rows: make(map[uint]*conversation.Conversation)}
}

func (r *fakeConvRepo) Create(_ context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	conv.ID = r.nextID
	cp := *conv
	r.rows[conv.ID] = &cp
	return nil
}

func (r *fakeConvRepo) FindByFilter(_ context.Context, _ conversation.Filter, _ *query.Pagination) ([]*conversation.Conversation, error) {
	panic("unused")
}

func (r *fakeConvRepo) Count(_ context.Context, _ conversation.Filter) (int64, error) {
	return int64(len(r.rows)), nil
}

func (r *fakeConvRepo) FindByID(_ context.Context, id uint) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
}

func (r *fakeConvRepo) FindByPublicID(_ context.Context, publicID string) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.PublicID == publicID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
}

func (r *fakeConvRepo) FindOpenByContactNumber(_ context.Context, contactNumber string) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ContactNumber == contactNumber && row.Status != conversation.StatusClosed {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeConvRepo) Update(_ context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *conv
	r.rows[conv.ID] = &cp
	return nil
}

func (r *fakeConvRepo) CompareAndSetStatus(_ context.Context, id uint, expected conversation.Status, change conversation.StatusChange) (*conversation.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, false, platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
	}
	if row.Status != expected {
		cp := *row
		return &cp, false, nil
	}
	row.Status = change.To
	if change.To == conversation.StatusSeller {
		row.AssignedAgentID = change.AssignedAgentID
	} else {
		row.AssignedAgentID = nil
	}
	cp := *row
	return &cp, true, nil
}

type fakeMsgRepo struct {
	mu       sync.Mutex
	rows     []*Message
	nextID   uint
	failNext error
}

func (r *fakeMsgRepo) Create(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	r.nextID++
	msg.ID = r.nextID
	cp := *msg
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeMsgRepo) CreateIfAbsent(ctx context.Context, msg *Message) (bool, error) {
	r.mu.Lock()
	if msg.TransportMessageID != nil {
		for _, row := range r.rows {
			if row.TransportMessageID != nil && *row.TransportMessageID == *msg.TransportMessageID {
				r.mu.Unlock()
				return false, nil
			}
		}
	}
	r.mu.Unlock()
	return true, r.Create(ctx, msg)
}

func (r *fakeMsgRepo) ExistsByTransportID(_ context.Context, transportMessageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.TransportMessageID != nil && *row.TransportMessageID == transportMessageID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMsgRepo) Update(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == msg.ID {
			cp := *msg
			r.rows[i] = &cp
			return nil
		}
	}
	return platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", nil, "")
}

func (r *fakeMsgRepo) ListByConversation(_ context.Context, conversationID uint, _ *query.Pagination) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Message
	for _, row := range r.rows {
		if row.ConversationID == conversationID {
			cp := *row
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *fakeMsgRepo) CountByConversation(_ context.Context, conversationID uint) (int64, error) {
	rows, _ := r.ListByConversation(context.Background(), conversationID, nil)
	return int64(len(rows)), nil
}

type fakeDispatcher struct {
	mu        sync.Mutex
	calls     int
	transport string
	err       error
}

func (d *fakeDispatcher) DispatchMessage(_ context.Context, _ *conversation.Conversation, _ string, _ map[string]string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	return d.transport, nil
}

type noopDirectory struct{}

func (noopDirectory) ResolveActiveAgent(ctx context.Context, _ string) (uint, string, error) {
	return 0, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "agent not found", nil, "")
}

func newTestSetup(t *testing.T, status conversation.Status) (*Service, *fakeConvRepo, *fakeMsgRepo, *fakeDispatcher) {
	t.Helper()
	convRepo := newFakeConvRepo()
	conv := conversation.NewConversation("conv_t1", "+5511988880001", "Customer", "whatsapp")
	conv.Status = status
	if status == conversation.StatusSeller {
		agentID := uint(7)
		conv.AssignedAgentID = &agentID
	}
	if err := convRepo.Create(context.Background(), conv); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	control := conversation.NewControlService(convRepo, noopDirectory{}, nil, zerolog.Nop())
	msgRepo := &fakeMsgRepo{}
	dispatcher := &fakeDispatcher{transport: "TX-100"}
	return NewService(msgRepo, control, dispatcher, zerolog.Nop()), convRepo, msgRepo, dispatcher
}

func TestSendOwnershipGate(t *testing.T) {
	agentID := uint(7)
	otherAgent := uint(8)

	tests := []struct {
		name    string
		status  conversation.Status
		sender  SenderType
		agentID *uint
		wantErr bool
	}{
		{name: "operator in manual", status: conversation.StatusManual, sender: SenderOperator},
		{name: "admin in manual", status: conversation.StatusManual, sender: SenderAdmin},
		{name: "operator in bot", status: conversation.StatusBot, sender: SenderOperator, wantErr: true},
		{name: "operator in seller", status: conversation.StatusSeller, sender: SenderOperator, wantErr: true},
		{name: "assigned agent in seller", status: conversation.StatusSeller, sender: SenderAgent, agentID: &agentID},
		{name: "other agent in seller", status: conversation.StatusSeller, sender: SenderAgent, agentID: &otherAgent, wantErr: true},
		{name: "agent in manual", status: conversation.StatusManual, sender: SenderAgent, agentID: &agentID, wantErr: true},
		{name: "bot in bot", status: conversation.StatusBot, sender: SenderBot},
		{name: "bot after takeover", status: conversation.StatusManual, sender: SenderBot, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, msgRepo, _ := newTestSetup(t, tc.status)

			_, err := svc.Send(context.Background(), SendInput{
				ConversationPublicID: "conv_t1",
				Sender:               tc.sender,
				SenderName:           "Sender",
				AgentID:              tc.agentID,
				Content:              "hello",
			})
			if tc.wantErr {
				if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeControlRequired) {
					t.Fatalf("expected CONTROL_REQUIRED, got %v", err)
				}
				if len(msgRepo.rows) != 0 {
					t.Fatal("rejected send wrote a timeline row")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSendSuccess(t *testing.T) {
	svc, _, msgRepo, dispatcher := newTestSetup(t, conversation.StatusManual)

	msg, err := svc.Send(context.Background(), SendInput{
		ConversationPublicID: "conv_t1",
		Sender:               SenderOperator,
		SenderName:           "Op One",
		Content:              "we are on it",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Status != StateSent {
		t.Fatalf("status = %s, want sent", msg.Status)
	}
	if msg.TransportMessageID == nil || *msg.TransportMessageID != "TX-100" {
		t.Fatalf("transport id = %v, want TX-100", msg.TransportMessageID)
	}
	if dispatcher.calls != 1 {
		t.Fatalf("dispatcher calls = %d", dispatcher.calls)
	}
	if len(msgRepo.rows) != 1 || msgRepo.rows[0].Status != StateSent {
		t.Fatalf("persisted rows = %+v", msgRepo.rows)
	}
}

func TestSendTransportFailure(t *testing.T) {
	svc, _, msgRepo, dispatcher := newTestSetup(t, conversation.StatusManual)
	dispatcher.err = errors.New("gateway unreachable")

	_, err := svc.Send(context.Background(), SendInput{
		ConversationPublicID: "conv_t1",
		Sender:               SenderOperator,
		SenderName:           "Op One",
		Content:              "hello",
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	// The attempt stays in the timeline as failed; it is not silently
	// swallowed and not retried here.
	if len(msgRepo.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(msgRepo.rows))
	}
	if msgRepo.rows[0].Status != StateFailed {
		t.Fatalf("status = %s, want failed", msgRepo.rows[0].Status)
	}
}

func TestSendResumesManualFromWaiting(t *testing.T) {
	svc, convRepo, _, _ := newTestSetup(t, conversation.StatusWaiting)

	// waiting is not an owning state for sends.
	_, err := svc.Send(context.Background(), SendInput{
		ConversationPublicID: "conv_t1",
		Sender:               SenderOperator,
		SenderName:           "Op One",
		Content:              "hello",
	})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeControlRequired) {
		t.Fatalf("expected CONTROL_REQUIRED, got %v", err)
	}

	stored, _ := convRepo.FindByPublicID(context.Background(), "conv_t1")
	if stored.Status != conversation.StatusWaiting {
		t.Fatalf("status = %s, want waiting", stored.Status)
	}
}

func TestHandleInbound(t *testing.T) {
	svc, convRepo, msgRepo, _ := newTestSetup(t, conversation.StatusManual)

	sentAt := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)
	event := InboundEvent{
		SenderContact:      "+5511988880001",
		SenderName:         "Customer",
		Content:            "any news?",
		TransportMessageID: "TX-IN-1",
		Timestamp:          sentAt,
		Source:             "whatsapp",
	}

	msg, stored, err := svc.HandleInbound(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored {
		t.Fatal("first delivery should be stored")
	}
	if msg.SenderType != SenderClient || msg.Status != StateReceived {
		t.Fatalf("msg = %+v", msg)
	}
	if !msg.CreatedAt.Equal(sentAt) {
		t.Fatalf("timestamp = %v, want origin %v", msg.CreatedAt, sentAt)
	}

	// Customer replied while the operator held the thread.
	conv, _ := convRepo.FindByPublicID(context.Background(), "conv_t1")
	if conv.Status != conversation.StatusWaiting {
		t.Fatalf("status = %s, want waiting", conv.Status)
	}

	// Webhook retry carries the same transport id.
	dup, stored, err := svc.HandleInbound(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored || dup != nil {
		t.Fatal("duplicate delivery must be collapsed")
	}
	if len(msgRepo.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(msgRepo.rows))
	}
}

func TestHandleInboundFirstContact(t *testing.T) {
	convRepo := newFakeConvRepo()
	control := conversation.NewControlService(convRepo, noopDirectory{}, nil, zerolog.Nop())
	msgRepo := &fakeMsgRepo{}
	svc := NewService(msgRepo, control, &fakeDispatcher{transport: "TX"}, zerolog.Nop())

	msg, stored, err := svc.HandleInbound(context.Background(), InboundEvent{
		SenderContact: "+5511977770001",
		Content:       "",
		Kind:          KindImage,
		Source:        "whatsapp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored {
		t.Fatal("expected a stored message")
	}
	if msg.Content != MediaPlaceholder {
		t.Fatalf("content = %q, want placeholder", msg.Content)
	}
	if msg.Kind != KindImage {
		t.Fatalf("kind = %s, want image", msg.Kind)
	}

	conv, _ := convRepo.FindOpenByContactNumber(context.Background(), "+5511977770001")
	if conv == nil || conv.Status != conversation.StatusBot {
		t.Fatalf("conversation = %+v, want bot-owned", conv)
	}
}
