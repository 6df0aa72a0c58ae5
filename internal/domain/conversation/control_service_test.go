package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/domain/query"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type fakeRepo struct {
	mu     sync.Mutex
	rows   map[uint]*Conversation
	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uint]*Conversation)}
}

func (r *fakeRepo) clone(c *Conversation) *Conversation {
	cp := *c
	if c.AssignedAgentID != nil {
		id := *c.AssignedAgentID
		cp.AssignedAgentID = &id
	}
	if c.ClosedAt != nil {
		t := *c.ClosedAt
		cp.ClosedAt = &t
	}
	return &cp
}

func (r *fakeRepo) Create(_ context.Context, conv *Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	conv.ID = r.nextID
	r.rows[conv.ID] = r.clone(conv)
	return nil
}

func (r *fakeRepo) FindByFilter(_ context.Context, _ Filter, _ *query.Pagination) ([]*Conversation, error) {
	panic("unused")
}

func (r *fakeRepo) Count(_ context.Context, _ Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uint) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		return r.clone(row), nil
	}
	return nil, platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
}

func (r *fakeRepo) FindByPublicID(_ context.Context, publicID string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.PublicID == publicID {
			return r.clone(row), nil
		}
	}
	return nil, platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
}

func (r *fakeRepo) FindOpenByContactNumber(_ context.Context, contactNumber string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *Conversation
	for _, row := range r.rows {
		if row.ContactNumber != contactNumber || row.Status == StatusClosed {
			continue
		}
		if newest == nil || row.CreatedAt.After(newest.CreatedAt) {
			newest = row
		}
	}
	if newest == nil {
		return nil, nil
	}
	return r.clone(newest), nil
}

func (r *fakeRepo) Update(_ context.Context, conv *Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[conv.ID] = r.clone(conv)
	return nil
}

func (r *fakeRepo) CompareAndSetStatus(_ context.Context, id uint, expected Status, change StatusChange) (*Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, false, platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
	}
	if row.Status != expected {
		return r.clone(row), false, nil
	}
	row.Status = change.To
	if change.To == StatusSeller {
		row.AssignedAgentID = change.AssignedAgentID
	} else {
		row.AssignedAgentID = nil
	}
	if change.ClosedAt != nil {
		row.ClosedAt = change.ClosedAt
	}
	row.UpdatedAt = time.Now()
	return r.clone(row), true, nil
}

type fakeDirectory struct {
	agents map[string]uint
}

func (d *fakeDirectory) ResolveActiveAgent(ctx context.Context, publicID string) (uint, string, error) {
	if id, ok := d.agents[publicID]; ok {
		return id, "Agent " + publicID, nil
	}
	return 0, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "agent not found", nil, "")
}

type recordingNotifier struct {
	changes chan ControlChange
}

func (n *recordingNotifier) NotifyControlChange(_ context.Context, change ControlChange) error {
	n.changes <- change
	return nil
}

func newTestService(repo *fakeRepo, notifier ControlNotifier) *ControlService {
	return NewControlService(repo, &fakeDirectory{agents: map[string]uint{"agent_a1": 7}}, notifier, zerolog.Nop())
}

func seedConversation(t *testing.T, repo *fakeRepo, status Status) *Conversation {
	t.Helper()
	conv := NewConversation("conv_test1", "+5511999990001", "Customer One", "whatsapp")
	conv.Status = status
	if status == StatusSeller {
		agentID := uint(7)
		conv.AssignedAgentID = &agentID
	}
	if err := repo.Create(context.Background(), conv); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return conv
}

func assertAgentInvariant(t *testing.T, conv *Conversation) {
	t.Helper()
	hasAgent := conv.AssignedAgentID != nil
	if (conv.Status == StatusSeller) != hasAgent {
		t.Fatalf("agent assignment invariant violated: status=%s assigned=%v", conv.Status, hasAgent)
	}
}

func TestTakeControl(t *testing.T) {
	tests := []struct {
		name      string
		start     Status
		expected  Status
		wantErr   platformerrors.ErrorType
		wantFinal Status
	}{
		{name: "from bot", start: StatusBot, expected: StatusBot, wantFinal: StatusManual},
		{name: "from waiting", start: StatusWaiting, expected: StatusWaiting, wantFinal: StatusManual},
		{name: "from seller clears agent", start: StatusSeller, expected: StatusSeller, wantFinal: StatusManual},
		{name: "stale expectation", start: StatusWaiting, expected: StatusBot, wantErr: platformerrors.ErrorTypeConflictingTransition},
		{name: "closed is absorbing", start: StatusClosed, expected: StatusBot, wantErr: platformerrors.ErrorTypeInvalidTransition},
		{name: "expecting closed", start: StatusClosed, expected: StatusClosed, wantErr: platformerrors.ErrorTypeInvalidTransition},
		{name: "unknown expected status", start: StatusBot, expected: Status("paused"), wantErr: platformerrors.ErrorTypeValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			seedConversation(t, repo, tc.start)
			svc := newTestService(repo, nil)

			got, err := svc.TakeControl(context.Background(), "conv_test1", tc.expected, "operator-1")
			if tc.wantErr != "" {
				if !platformerrors.IsErrorType(err, tc.wantErr) {
					t.Fatalf("expected %s, got %v", tc.wantErr, err)
				}
				stored, _ := repo.FindByPublicID(context.Background(), "conv_test1")
				if stored.Status != tc.start {
					t.Fatalf("failed transition mutated the row: %s -> %s", tc.start, stored.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tc.wantFinal {
				t.Fatalf("status = %s, want %s", got.Status, tc.wantFinal)
			}
			assertAgentInvariant(t, got)
		})
	}
}

func TestTakeControlRace(t *testing.T) {
	repo := newFakeRepo()
	seedConversation(t, repo, StatusBot)
	svc := newTestService(repo, nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.TakeControl(context.Background(), "conv_test1", StatusBot, "operator")
		}(i)
	}
	wg.Wait()

	winners, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflictingTransition):
			conflicts++
		default:
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
	if conflicts != callers-1 {
		t.Fatalf("conflicts = %d, want %d", conflicts, callers-1)
	}
}

func TestTransferToAgent(t *testing.T) {
	t.Run("manual to seller", func(t *testing.T) {
		repo := newFakeRepo()
		seedConversation(t, repo, StatusManual)
		svc := newTestService(repo, nil)

		got, err := svc.TransferToAgent(context.Background(), "conv_test1", "agent_a1", "operator-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != StatusSeller {
			t.Fatalf("status = %s, want seller", got.Status)
		}
		if got.AssignedAgentID == nil || *got.AssignedAgentID != 7 {
			t.Fatalf("assigned agent = %v, want 7", got.AssignedAgentID)
		}
	})

	t.Run("not under manual control", func(t *testing.T) {
		repo := newFakeRepo()
		seedConversation(t, repo, StatusBot)
		svc := newTestService(repo, nil)

		_, err := svc.TransferToAgent(context.Background(), "conv_test1", "agent_a1", "operator-1")
		if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflictingTransition) {
			t.Fatalf("expected CONFLICTING_TRANSITION, got %v", err)
		}
	})

	t.Run("unknown agent", func(t *testing.T) {
		repo := newFakeRepo()
		seedConversation(t, repo, StatusManual)
		svc := newTestService(repo, nil)

		_, err := svc.TransferToAgent(context.Background(), "conv_test1", "agent_missing", "operator-1")
		if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
		stored, _ := repo.FindByPublicID(context.Background(), "conv_test1")
		if stored.Status != StatusManual {
			t.Fatalf("failed transfer mutated status to %s", stored.Status)
		}
	})
}

func TestClose(t *testing.T) {
	repo := newFakeRepo()
	seedConversation(t, repo, StatusSeller)
	svc := newTestService(repo, nil)

	got, err := svc.Close(context.Background(), "conv_test1", "operator-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusClosed {
		t.Fatalf("status = %s, want closed", got.Status)
	}
	if got.ClosedAt == nil {
		t.Fatal("closed_at not set")
	}
	assertAgentInvariant(t, got)

	// Re-closing is a no-op, not an error.
	again, err := svc.Close(context.Background(), "conv_test1", "operator-1")
	if err != nil {
		t.Fatalf("re-close returned error: %v", err)
	}
	if again.Status != StatusClosed {
		t.Fatalf("status = %s after re-close", again.Status)
	}
}

func TestRecordInbound(t *testing.T) {
	t.Run("first contact creates bot conversation", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, nil)

		conv, created, err := svc.RecordInbound(context.Background(), "+5511999990002", "New Customer", "whatsapp")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !created {
			t.Fatal("expected a new conversation")
		}
		if conv.Status != StatusBot {
			t.Fatalf("status = %s, want bot", conv.Status)
		}
		if conv.PublicID == "" {
			t.Fatal("public id not assigned")
		}
	})

	t.Run("manual moves to waiting", func(t *testing.T) {
		repo := newFakeRepo()
		seedConversation(t, repo, StatusManual)
		svc := newTestService(repo, nil)

		conv, created, err := svc.RecordInbound(context.Background(), "+5511999990001", "Customer One", "whatsapp")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created {
			t.Fatal("should reuse the open conversation")
		}
		if conv.Status != StatusWaiting {
			t.Fatalf("status = %s, want waiting", conv.Status)
		}
	})

	t.Run("closed thread starts a fresh conversation", func(t *testing.T) {
		repo := newFakeRepo()
		seedConversation(t, repo, StatusClosed)
		svc := newTestService(repo, nil)

		conv, created, err := svc.RecordInbound(context.Background(), "+5511999990001", "Customer One", "whatsapp")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !created {
			t.Fatal("expected a new conversation for a closed thread")
		}
		if conv.Status != StatusBot {
			t.Fatalf("status = %s, want bot", conv.Status)
		}
	})
}

func TestRecordOutbound(t *testing.T) {
	repo := newFakeRepo()
	conv := seedConversation(t, repo, StatusWaiting)
	svc := newTestService(repo, nil)

	got, err := svc.RecordOutbound(context.Background(), conv, "operator-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusManual {
		t.Fatalf("status = %s, want manual", got.Status)
	}

	// Statuses other than waiting are left alone.
	unchanged, err := svc.RecordOutbound(context.Background(), got, "operator-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unchanged.Status != StatusManual {
		t.Fatalf("status = %s, want manual", unchanged.Status)
	}
}

func TestTransitionNotifies(t *testing.T) {
	repo := newFakeRepo()
	seedConversation(t, repo, StatusBot)
	notifier := &recordingNotifier{changes: make(chan ControlChange, 1)}
	svc := newTestService(repo, notifier)

	if _, err := svc.TakeControl(context.Background(), "conv_test1", StatusBot, "operator-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case change := <-notifier.changes:
		if change.From != StatusBot || change.To != StatusManual {
			t.Fatalf("change = %s -> %s, want bot -> manual", change.From, change.To)
		}
		if change.Actor != "operator-1" {
			t.Fatalf("actor = %q", change.Actor)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never arrived")
	}
}
