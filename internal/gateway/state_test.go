package gateway

import (
	"errors"
	"testing"

	"legalaid-admin/internal/domain"
	legalaid_errors "legalaid-admin/pkg/errors"
)

func seededState(t *testing.T) (*State, domain.User, domain.Query) {
	t.Helper()
	state := NewState()
	admin, err := state.SeedAdmin("admin@example.com", "secret")
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	state.SeedDemo()
	queries := state.Queries()
	if len(queries) == 0 {
		t.Fatal("demo seed produced no queries")
	}
	return state, admin, queries[0]
}

func TestAuthenticate(t *testing.T) {
	state, admin, _ := seededState(t)

	user, err := state.Authenticate("admin@example.com", "secret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != admin.ID {
		t.Fatalf("expected admin account, got %s", user.ID)
	}

	if _, err := state.Authenticate("admin@example.com", "wrong"); !errors.Is(err, legalaid_errors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}
	if _, err := state.Authenticate("nobody@example.com", "secret"); !errors.Is(err, legalaid_errors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	state, _, _ := seededState(t)

	if _, err := state.CreateUser(domain.User{FullName: "Other Admin", Email: "admin@example.com", Role: "Admin"}, "pw"); !errors.Is(err, legalaid_errors.ErrAlreadyExists) {
		t.Fatalf("expected already-exists, got %v", err)
	}
}

func TestCreateQueryStartsPending(t *testing.T) {
	state := NewState()

	q := state.CreateQuery(domain.Query{Subject: "Wage dispute", Status: domain.StatusClosed})
	if q.ID == "" {
		t.Fatal("expected a generated id")
	}
	if q.Status != domain.StatusPending {
		t.Fatalf("expected pending regardless of input, got %q", q.Status)
	}
	if _, err := state.Query(q.ID); err != nil {
		t.Fatalf("created query not retrievable: %v", err)
	}
}

func TestUpdateQueryStatusForwardOnly(t *testing.T) {
	state, _, q := seededState(t)

	updated, err := state.UpdateQueryStatus(q.ID, domain.StatusAnswered)
	if err != nil {
		t.Fatalf("forward update: %v", err)
	}
	if updated.Status != domain.StatusAnswered {
		t.Fatalf("expected answered, got %q", updated.Status)
	}

	if _, err := state.UpdateQueryStatus(q.ID, domain.StatusPending); !errors.Is(err, legalaid_errors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition going backwards, got %v", err)
	}

	// Idempotent same-status write.
	if _, err := state.UpdateQueryStatus(q.ID, domain.StatusAnswered); err != nil {
		t.Fatalf("same-status update: %v", err)
	}
}

func TestUpdateQueryPartialFields(t *testing.T) {
	state, _, q := seededState(t)

	subject := "Amended subject"
	answer := "File a reply within 30 days."
	updated, err := state.UpdateQuery(q.ID, nil, &subject, &answer)
	if err != nil {
		t.Fatalf("partial update: %v", err)
	}
	if updated.Subject != subject || updated.Answer != answer {
		t.Fatalf("fields not applied: %+v", updated)
	}
	if updated.Status != q.Status {
		t.Fatalf("status changed by a field-only update: %q", updated.Status)
	}
}

func TestAppendMessageEchoesTempID(t *testing.T) {
	state, admin, q := seededState(t)

	msg, err := state.AppendMessage(q.ID, admin.ID, domain.RoleAdmin, "We are on it", "temp-1")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.ID == "" || msg.ID == "temp-1" {
		t.Fatalf("expected a server id, got %q", msg.ID)
	}
	if msg.TempID != "temp-1" {
		t.Fatalf("expected temp id echoed, got %q", msg.TempID)
	}
	if msg.Status != domain.DeliverySent {
		t.Fatalf("expected sent status, got %q", msg.Status)
	}

	history := state.History(q.ID)
	if len(history) != 1 || history[0].ID != msg.ID {
		t.Fatalf("message not persisted: %+v", history)
	}
}

func TestAppendMessageRejectsClosedQuery(t *testing.T) {
	state, admin, q := seededState(t)

	if _, err := state.UpdateQueryStatus(q.ID, domain.StatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err := state.AppendMessage(q.ID, admin.ID, domain.RoleAdmin, "too late", "")
	if !errors.Is(err, legalaid_errors.ErrConversationClosed) {
		t.Fatalf("expected closed-conversation rejection, got %v", err)
	}
	if got := state.History(q.ID); len(got) != 0 {
		t.Fatal("message persisted into a closed query")
	}
}

func TestUpdateMessageStatusReturnsAffectedMessage(t *testing.T) {
	state, admin, q := seededState(t)

	msg, err := state.AppendMessage(q.ID, admin.ID, domain.RoleAdmin, "hello", "")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	updated, err := state.UpdateMessageStatus(msg.ID, domain.DeliveryDelivered)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.SenderID != admin.ID || updated.Status != domain.DeliveryDelivered {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := state.UpdateMessageStatus("missing", domain.DeliveryRead); !errors.Is(err, legalaid_errors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteQueryRemovesHistory(t *testing.T) {
	state, admin, q := seededState(t)

	if _, err := state.AppendMessage(q.ID, admin.ID, domain.RoleAdmin, "hello", ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := state.DeleteQuery(q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := state.Query(q.ID); !errors.Is(err, legalaid_errors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := state.History(q.ID); len(got) != 0 {
		t.Fatal("history survived query deletion")
	}
}

func TestAnalyticsCounts(t *testing.T) {
	state, _, q := seededState(t)

	if _, err := state.UpdateQueryStatus(q.ID, domain.StatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}

	stats := state.Analytics()
	if stats["totalQueries"].(int) != 2 {
		t.Fatalf("expected 2 queries, got %v", stats["totalQueries"])
	}
	if stats["closedQueries"].(int) != 1 || stats["openQueries"].(int) != 1 {
		t.Fatalf("unexpected open/closed split: %v", stats)
	}
}

func TestContentCRUD(t *testing.T) {
	state := NewState()

	item := state.ContentCreate("faqs", map[string]any{"question": "How do I apply?"})
	id, _ := item["_id"].(string)
	if id == "" {
		t.Fatal("expected a generated id")
	}

	updated, err := state.ContentUpdate("faqs", id, map[string]any{"question": "How do I apply for aid?"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["_id"] != id {
		t.Fatalf("id changed on update: %v", updated["_id"])
	}

	if err := state.ContentDelete("faqs", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := state.ContentList("faqs"); len(got) != 0 {
		t.Fatalf("expected empty section, got %v", got)
	}
	if err := state.ContentDelete("faqs", id); !errors.Is(err, legalaid_errors.ErrNotFound) {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}
