package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type fakeDeliveryRepo struct {
	rows   []*Entry
	nextID uint
}

func (r *fakeDeliveryRepo) Create(_ context.Context, entry *Entry) error {
	r.nextID++
	entry.ID = r.nextID
	cp := *entry
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeDeliveryRepo) FindByID(_ context.Context, id uint) (*Entry, error) {
	for _, row := range r.rows {
		if row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "entry not found", nil, "")
}

func (r *fakeDeliveryRepo) ListUnacknowledged(_ context.Context, contextType ContextType, since time.Time) ([]*Entry, error) {
	var result []*Entry
	for _, row := range r.rows {
		if row.ContextType != contextType || row.TransportMessageID != nil {
			continue
		}
		if row.CreatedAt.Before(since) {
			continue
		}
		cp := *row
		result = append(result, &cp)
	}
	return result, nil
}

type scriptedTransport struct {
	calls    []SendRequest
	failFor  map[string]error
	nextID   int
	idPrefix string
}

func (t *scriptedTransport) Send(_ context.Context, req SendRequest) (string, error) {
	t.calls = append(t.calls, req)
	if err, ok := t.failFor[req.Recipient]; ok {
		return "", err
	}
	t.nextID++
	prefix := t.idPrefix
	if prefix == "" {
		prefix = "TX"
	}
	return prefix + "-" + string(rune('0'+t.nextID)), nil
}

type mapResolver struct {
	creds map[string]*Credential
}

func (r *mapResolver) ResolveCredential(ctx context.Context, senderID string) (*Credential, error) {
	if cred, ok := r.creds[senderID]; ok {
		return cred, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeCredentialMissing, "no transport credential for sender", nil, "")
}

func newDeliveryTestService(repo *fakeDeliveryRepo, transport Transport) *Service {
	resolver := &mapResolver{creds: map[string]*Credential{
		SystemSender: {Token: "tok-system", Number: "+5511900000000"},
		"agent_a1":   {Token: "tok-a1", Number: "+5511900000001"},
	}}
	return NewService(repo, transport, resolver, "+5511911111111", time.Second, zerolog.Nop())
}

func TestSendWritesAcknowledgedEntry(t *testing.T) {
	repo := &fakeDeliveryRepo{}
	transport := &scriptedTransport{}
	svc := newDeliveryTestService(repo, transport)

	entry, err := svc.Send(context.Background(), SendInput{
		SenderID:    "agent_a1",
		Recipient:   "+5511988880001",
		Content:     "your order shipped",
		ContextType: ContextNotification,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Status != StatusSent {
		t.Fatalf("status = %s, want sent", entry.Status)
	}
	if entry.TransportMessageID == nil {
		t.Fatal("transport id not recorded")
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.rows))
	}
	if got := transport.calls[0].Token; got != "tok-a1" {
		t.Fatalf("sent with token %q, want the agent credential", got)
	}
}

func TestSendTransportRejection(t *testing.T) {
	repo := &fakeDeliveryRepo{}
	transport := &scriptedTransport{failFor: map[string]error{"+5511988880001": errors.New("429 too many requests")}}
	svc := newDeliveryTestService(repo, transport)

	_, err := svc.Send(context.Background(), SendInput{
		SenderID:    SystemSender,
		Recipient:   "+5511988880001",
		Content:     "hello",
		ContextType: ContextNotification,
	})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeTransportFailure) {
		t.Fatalf("expected TRANSPORT_FAILURE, got %v", err)
	}
	// The rejected attempt still leaves an audit row with no ack.
	if len(repo.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.rows))
	}
	if repo.rows[0].Status != StatusFailed || repo.rows[0].TransportMessageID != nil {
		t.Fatalf("entry = %+v", repo.rows[0])
	}
}

func TestSendCredentialMissing(t *testing.T) {
	repo := &fakeDeliveryRepo{}
	svc := newDeliveryTestService(repo, &scriptedTransport{})

	_, err := svc.Send(context.Background(), SendInput{
		SenderID:    "agent_unknown",
		Recipient:   "+5511988880001",
		Content:     "hello",
		ContextType: ContextNotification,
	})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeCredentialMissing) {
		t.Fatalf("expected CREDENTIAL_MISSING, got %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatal("no transport attempt was made, nothing should be logged")
	}
}

func seedUnacked(repo *fakeDeliveryRepo, recipient string, age time.Duration, now time.Time) {
	repo.nextID++
	repo.rows = append(repo.rows, &Entry{
		ID:          repo.nextID,
		SenderID:    SystemSender,
		Recipient:   recipient,
		Content:     "pending notification",
		ContextType: ContextNotification,
		Status:      StatusFailed,
		CreatedAt:   now.Add(-age),
	})
}

func TestResendFailedLookbackWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepo{}
	transport := &scriptedTransport{}
	svc := newDeliveryTestService(repo, transport)
	svc.now = func() time.Time { return now }
	svc.sleep = func(time.Duration) {}

	seedUnacked(repo, "+5511988880001", 2*time.Hour, now)  // inside window
	seedUnacked(repo, "+5511988880002", 25*time.Hour, now) // aged out

	summary, err := svc.ResendFailed(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalProcessed != 1 {
		t.Fatalf("total = %d, want 1", summary.TotalProcessed)
	}
	if summary.SuccessCount != 1 || summary.FailedCount != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(transport.calls) != 1 || transport.calls[0].Recipient != "+5511988880001" {
		t.Fatalf("transport calls = %+v", transport.calls)
	}
}

func TestResendFailedEnrichesMetadata(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepo{}
	svc := newDeliveryTestService(repo, &scriptedTransport{})
	svc.now = func() time.Time { return now }
	svc.sleep = func(time.Duration) {}

	seedUnacked(repo, "+5511988880001", time.Hour, now)
	originalID := repo.rows[0].ID

	if _, err := svc.ResendFailed(context.Background(), 24*time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The resend attempt is its own entry with a back-reference.
	var resent *Entry
	for _, row := range repo.rows {
		if row.ContextType == ContextResend {
			resent = row
		}
	}
	if resent == nil {
		t.Fatal("no resend entry written")
	}
	if resent.Metadata["original_entry_id"] != "1" {
		t.Fatalf("original_entry_id = %q, want %d", resent.Metadata["original_entry_id"], originalID)
	}
	if resent.Metadata["resend_reason"] == "" {
		t.Fatal("resend_reason missing")
	}
}

func TestResendFailedPacing(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepo{}
	svc := newDeliveryTestService(repo, &scriptedTransport{})
	svc.now = func() time.Time { return now }

	var pauses []time.Duration
	svc.sleep = func(d time.Duration) { pauses = append(pauses, d) }

	for i := 0; i < 3; i++ {
		seedUnacked(repo, "+551198888000"+string(rune('1'+i)), time.Hour, now)
	}

	if _, err := svc.ResendFailed(context.Background(), 24*time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pauses) != 2 {
		t.Fatalf("pauses = %d, want one between each pair", len(pauses))
	}
	for _, d := range pauses {
		if d < time.Second {
			t.Fatalf("pacing %v below one second", d)
		}
	}
}

func TestResendFailedContinuesPastFailures(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepo{}
	transport := &scriptedTransport{failFor: map[string]error{"+5511988880002": errors.New("blocked recipient")}}
	svc := newDeliveryTestService(repo, transport)
	svc.now = func() time.Time { return now }
	svc.sleep = func(time.Duration) {}

	seedUnacked(repo, "+5511988880001", time.Hour, now)
	seedUnacked(repo, "+5511988880002", time.Hour, now)
	seedUnacked(repo, "+5511988880003", time.Hour, now)

	summary, err := svc.ResendFailed(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalProcessed != 3 || summary.SuccessCount != 2 || summary.FailedCount != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	var failed *ResendResult
	for i := range summary.Results {
		if summary.Results[i].Status == StatusFailed {
			failed = &summary.Results[i]
		}
	}
	if failed == nil || failed.Recipient != "+5511988880002" {
		t.Fatalf("results = %+v", summary.Results)
	}
	if failed.Error == "" {
		t.Fatal("failure reason not recorded")
	}
}

func TestResendFailedCancellation(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepo{}
	transport := &scriptedTransport{}
	svc := newDeliveryTestService(repo, transport)
	svc.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	svc.sleep = func(time.Duration) { cancel() }

	seedUnacked(repo, "+5511988880001", time.Hour, now)
	seedUnacked(repo, "+5511988880002", time.Hour, now)

	summary, err := svc.ResendFailed(ctx, 24*time.Hour)
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	// The first entry committed before cancellation took effect.
	if summary.TotalProcessed != 1 {
		t.Fatalf("total = %d, want 1", summary.TotalProcessed)
	}
	if len(transport.calls) != 1 {
		t.Fatalf("transport calls = %d, want 1", len(transport.calls))
	}
}
