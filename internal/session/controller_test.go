package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"legalaid-admin/internal/chatstore"
	"legalaid-admin/internal/domain"
	legalaid_errors "legalaid-admin/pkg/errors"
)

type sentFrame struct {
	queryID    string
	receiverID string
	body       string
	tempID     string
}

type fakeTransport struct {
	fetches  []string
	sent     []sentFrame
	acks     []string
	fetchErr error
	sendErr  error
}

func (f *fakeTransport) FetchHistory(queryID string) error {
	f.fetches = append(f.fetches, queryID)
	return f.fetchErr
}

func (f *fakeTransport) SendMessage(queryID, receiverID, body, tempID string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentFrame{queryID, receiverID, body, tempID})
	return nil
}

func (f *fakeTransport) AcknowledgeDelivery(messageID, senderID string) error {
	f.acks = append(f.acks, messageID)
	return nil
}

type fakePolicy struct {
	views   int
	replies int
	closes  int
}

func (f *fakePolicy) EscalateOnView(_ context.Context, q domain.Query) (domain.QueryStatus, error) {
	f.views++
	if q.Status == domain.StatusPending {
		return domain.StatusInProgress, nil
	}
	return q.Status, nil
}

func (f *fakePolicy) EscalateOnReply(_ context.Context, q domain.Query) (domain.QueryStatus, error) {
	f.replies++
	return domain.StatusAnswered, nil
}

func (f *fakePolicy) Close(_ context.Context, q domain.Query) (domain.QueryStatus, error) {
	f.closes++
	return domain.StatusClosed, nil
}

func newFixture() (*Controller, *fakeTransport, *fakePolicy, *chatstore.Store) {
	transport := &fakeTransport{}
	policy := &fakePolicy{}
	store := chatstore.New()
	ctrl := NewController(transport, store, policy, "admin-1", nil)
	return ctrl, transport, policy, store
}

func pendingQuery() domain.Query {
	return domain.Query{
		ID:        "q1",
		Subject:   "Eviction notice",
		Status:    domain.StatusPending,
		Submitter: domain.Submitter{ID: "client-1", FullName: "Asha Rao"},
	}
}

func clientMsg(id string, at time.Time) domain.Message {
	return domain.Message{
		ID:         id,
		QueryID:    "q1",
		SenderID:   "client-1",
		SenderRole: domain.RoleClient,
		Body:       "help",
		CreatedAt:  at,
		Status:     domain.DeliverySent,
	}
}

func goLive(t *testing.T, ctrl *Controller, q domain.Query, history []domain.Message) {
	t.Helper()
	if err := ctrl.Select(context.Background(), q); err != nil {
		t.Fatalf("select: %v", err)
	}
	ctrl.HandleHistory(q.ID, history)
	if got := ctrl.State(); got != StateLive && got != StateClosed {
		t.Fatalf("expected live or closed after history, got %s", got)
	}
}

func TestSelectFetchesHistoryAndEscalatesPending(t *testing.T) {
	ctrl, transport, policy, _ := newFixture()

	if err := ctrl.Select(context.Background(), pendingQuery()); err != nil {
		t.Fatalf("select: %v", err)
	}

	if len(transport.fetches) != 1 || transport.fetches[0] != "q1" {
		t.Fatalf("expected one history fetch for q1, got %v", transport.fetches)
	}
	if policy.views != 1 {
		t.Fatalf("expected one view escalation, got %d", policy.views)
	}
	if ctrl.State() != StateLoadingHistory {
		t.Fatalf("expected loading-history, got %s", ctrl.State())
	}
	active, ok := ctrl.ActiveQuery()
	if !ok || active.Status != domain.StatusInProgress {
		t.Fatalf("expected active query escalated to in progress, got %v %v", active.Status, ok)
	}
}

func TestSelectNonPendingDoesNotEscalate(t *testing.T) {
	ctrl, _, policy, _ := newFixture()

	q := pendingQuery()
	q.Status = domain.StatusAnswered
	if err := ctrl.Select(context.Background(), q); err != nil {
		t.Fatalf("select: %v", err)
	}
	if policy.views != 0 {
		t.Fatalf("expected no escalation for answered query, got %d", policy.views)
	}
}

func TestSelectFetchFailureResetsToIdle(t *testing.T) {
	ctrl, transport, _, _ := newFixture()
	transport.fetchErr = errors.New("socket down")

	if err := ctrl.Select(context.Background(), pendingQuery()); err == nil {
		t.Fatal("expected fetch error to surface")
	}
	if ctrl.State() != StateIdle {
		t.Fatalf("expected idle after failed select, got %s", ctrl.State())
	}
	if _, ok := ctrl.ActiveQuery(); ok {
		t.Fatal("expected no active query after failed select")
	}
}

func TestStaleHistoryIsDiscarded(t *testing.T) {
	ctrl, _, _, store := newFixture()

	first := pendingQuery()
	second := pendingQuery()
	second.ID = "q2"
	second.Submitter.ID = "client-2"

	if err := ctrl.Select(context.Background(), first); err != nil {
		t.Fatalf("select q1: %v", err)
	}
	if err := ctrl.Select(context.Background(), second); err != nil {
		t.Fatalf("select q2: %v", err)
	}

	// The q1 response lands after q2 was selected.
	ctrl.HandleHistory("q1", []domain.Message{clientMsg("m1", time.Now())})

	if ctrl.State() != StateLoadingHistory {
		t.Fatalf("stale history moved the state to %s", ctrl.State())
	}
	if got := store.Messages("q1"); len(got) != 0 {
		t.Fatalf("stale history was applied: %d messages", len(got))
	}
}

func TestLiveMessagesBufferedDuringHistoryLoad(t *testing.T) {
	ctrl, transport, _, store := newFixture()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := ctrl.Select(context.Background(), pendingQuery()); err != nil {
		t.Fatalf("select: %v", err)
	}

	// Arrives between fetch_history and chat_history.
	ctrl.HandleMessage(clientMsg("m2", base.Add(time.Minute)))

	ctrl.HandleHistory("q1", []domain.Message{clientMsg("m1", base)})

	got := store.Messages("q1")
	if len(got) != 2 {
		t.Fatalf("expected history plus buffered message, got %d", len(got))
	}
	if got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if len(transport.acks) != 1 || transport.acks[0] != "m2" {
		t.Fatalf("expected delivery ack for buffered client message, got %v", transport.acks)
	}
}

func TestHandleMessageIgnoresOtherConversations(t *testing.T) {
	ctrl, _, _, store := newFixture()
	goLive(t, ctrl, pendingQuery(), nil)

	other := clientMsg("m9", time.Now())
	other.QueryID = "q9"
	ctrl.HandleMessage(other)

	if got := store.Messages("q9"); len(got) != 0 {
		t.Fatalf("message for inactive conversation was stored")
	}
}

func TestSendOptimisticThenEscalatesFirstReply(t *testing.T) {
	ctrl, transport, policy, store := newFixture()
	goLive(t, ctrl, pendingQuery(), []domain.Message{clientMsg("m1", time.Now())})

	if err := ctrl.Send(context.Background(), "  We are looking into it  "); err != nil {
		t.Fatalf("send: %v", err)
	}

	got := store.Messages("q1")
	if len(got) != 2 {
		t.Fatalf("expected optimistic entry appended, got %d messages", len(got))
	}
	opt := got[1]
	if !strings.HasPrefix(opt.ID, "temp-") {
		t.Errorf("expected a temp id, got %q", opt.ID)
	}
	if opt.Status != domain.DeliverySending {
		t.Errorf("expected sending status, got %q", opt.Status)
	}
	if opt.Body != "We are looking into it" {
		t.Errorf("expected trimmed body, got %q", opt.Body)
	}

	if len(transport.sent) != 1 {
		t.Fatalf("expected one frame, got %d", len(transport.sent))
	}
	frame := transport.sent[0]
	if frame.receiverID != "client-1" || frame.tempID != opt.ID {
		t.Errorf("unexpected frame %+v", frame)
	}

	if policy.replies != 1 {
		t.Fatalf("expected first-reply escalation, got %d", policy.replies)
	}
	active, _ := ctrl.ActiveQuery()
	if active.Status != domain.StatusAnswered {
		t.Fatalf("expected answered, got %q", active.Status)
	}

	// Second reply must not escalate again.
	if err := ctrl.Send(context.Background(), "Any update?"); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if policy.replies != 1 {
		t.Fatalf("expected exactly one reply escalation, got %d", policy.replies)
	}
}

func TestSendRejectsWhenNotLive(t *testing.T) {
	ctrl, _, _, _ := newFixture()

	if err := ctrl.Send(context.Background(), "hi"); !errors.Is(err, legalaid_errors.ErrNoActiveConversation) {
		t.Fatalf("expected no-active-conversation error, got %v", err)
	}

	if err := ctrl.Select(context.Background(), pendingQuery()); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := ctrl.Send(context.Background(), "hi"); !errors.Is(err, legalaid_errors.ErrNoActiveConversation) {
		t.Fatalf("expected send during history load to be rejected, got %v", err)
	}
}

func TestSendRejectsClosedConversation(t *testing.T) {
	ctrl, transport, _, _ := newFixture()

	q := pendingQuery()
	q.Status = domain.StatusClosed
	goLive(t, ctrl, q, nil)

	if ctrl.State() != StateClosed {
		t.Fatalf("expected closed state, got %s", ctrl.State())
	}
	if err := ctrl.Send(context.Background(), "hi"); !errors.Is(err, legalaid_errors.ErrConversationClosed) {
		t.Fatalf("expected conversation-closed error, got %v", err)
	}
	if len(transport.sent) != 0 {
		t.Fatal("frame emitted for a closed conversation")
	}
}

func TestSendEmptyBodyIsNoOp(t *testing.T) {
	ctrl, transport, _, store := newFixture()
	goLive(t, ctrl, pendingQuery(), nil)

	if err := ctrl.Send(context.Background(), "   "); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if len(transport.sent) != 0 {
		t.Fatal("frame emitted for empty body")
	}
	if got := store.Messages("q1"); len(got) != 0 {
		t.Fatal("optimistic entry appended for empty body")
	}
}

func TestSendFailureKeepsOptimisticEntrySending(t *testing.T) {
	ctrl, transport, _, store := newFixture()
	goLive(t, ctrl, pendingQuery(), nil)
	transport.sendErr = errors.New("socket down")

	if err := ctrl.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected send error to surface")
	}
	got := store.Messages("q1")
	if len(got) != 1 || got[0].Status != domain.DeliverySending {
		t.Fatalf("expected the optimistic entry to stay at sending, got %v", got)
	}
}

func TestRapidSendsGetDistinctTempIDs(t *testing.T) {
	ctrl, transport, _, _ := newFixture()
	goLive(t, ctrl, pendingQuery(), nil)

	for i := 0; i < 5; i++ {
		if err := ctrl.Send(context.Background(), "ping"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	seen := make(map[string]bool)
	for _, frame := range transport.sent {
		if seen[frame.tempID] {
			t.Fatalf("duplicate temp id %s", frame.tempID)
		}
		seen[frame.tempID] = true
	}
}

func TestServerEchoResolvesOptimisticEntry(t *testing.T) {
	ctrl, transport, _, store := newFixture()
	goLive(t, ctrl, pendingQuery(), nil)

	if err := ctrl.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	tempID := transport.sent[0].tempID

	echo := domain.Message{
		ID:         "server-1",
		QueryID:    "q1",
		SenderID:   "admin-1",
		SenderRole: domain.RoleAdmin,
		Body:       "hello",
		CreatedAt:  time.Now(),
		Status:     domain.DeliverySent,
		TempID:     tempID,
	}
	ctrl.HandleMessage(echo)

	got := store.Messages("q1")
	if len(got) != 1 {
		t.Fatalf("echo duplicated the message: %d entries", len(got))
	}
	if got[0].ID != "server-1" || got[0].Status != domain.DeliverySent {
		t.Fatalf("optimistic entry not resolved: %+v", got[0])
	}
	if len(transport.acks) != 0 {
		t.Fatal("own echo must not be delivery-acked")
	}
}

func TestCloseConversationEndsSession(t *testing.T) {
	ctrl, _, policy, _ := newFixture()
	goLive(t, ctrl, pendingQuery(), nil)

	if err := ctrl.CloseConversation(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if ctrl.State() != StateClosed {
		t.Fatalf("expected closed, got %s", ctrl.State())
	}

	if err := ctrl.CloseConversation(context.Background()); err != nil {
		t.Fatalf("repeat close: %v", err)
	}
	if policy.closes != 1 {
		t.Fatalf("expected one close call, got %d", policy.closes)
	}
}

func TestExternalCloseEndsLiveSession(t *testing.T) {
	ctrl, _, _, _ := newFixture()
	goLive(t, ctrl, pendingQuery(), nil)

	ctrl.ApplyQueryStatus("q1", domain.StatusClosed)

	if ctrl.State() != StateClosed {
		t.Fatalf("expected closed after external status, got %s", ctrl.State())
	}
	if err := ctrl.Send(context.Background(), "hi"); !errors.Is(err, legalaid_errors.ErrConversationClosed) {
		t.Fatalf("expected conversation-closed error, got %v", err)
	}
}
