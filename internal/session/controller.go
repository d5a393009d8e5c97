package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"legalaid-admin/internal/chatstore"
	"legalaid-admin/internal/domain"
	legalaid_errors "legalaid-admin/pkg/errors"
	"legalaid-admin/pkg/logger"
)

// Transport is the outbound slice of the socket transport the controller
// drives. Results arrive asynchronously through the Handle* methods.
type Transport interface {
	FetchHistory(queryID string) error
	SendMessage(queryID, receiverID, body, tempID string) error
	AcknowledgeDelivery(messageID, senderID string) error
}

// StatusPolicy is the query status coupling, injected so the lifecycle side
// effects can be tested and swapped independently of transport details.
type StatusPolicy interface {
	EscalateOnView(ctx context.Context, q domain.Query) (domain.QueryStatus, error)
	EscalateOnReply(ctx context.Context, q domain.Query) (domain.QueryStatus, error)
	Close(ctx context.Context, q domain.Query) (domain.QueryStatus, error)
}

// State is the controller's position in the per-conversation lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoadingHistory
	StateLive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingHistory:
		return "loading-history"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Controller binds the currently viewed conversation to the transport and
// the store. Exactly one conversation is active at a time; events for any
// other conversation are discarded by id comparison.
type Controller struct {
	transport Transport
	store     *chatstore.Store
	policy    StatusPolicy
	log       *logger.Logger
	adminID   string

	mu       sync.Mutex
	state    State
	active   *domain.Query
	buffered []domain.Message
	lastTemp time.Time
}

func NewController(t Transport, store *chatstore.Store, policy StatusPolicy, adminID string, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Controller{
		transport: t,
		store:     store,
		policy:    policy,
		log:       log,
		adminID:   adminID,
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveQuery returns a copy of the active query, or false when idle.
func (c *Controller) ActiveQuery() (domain.Query, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.Query{}, false
	}
	return *c.active, true
}

// Select makes q the active conversation. Any previous selection is
// abandoned: a late history response for it will no longer match the active
// id and is discarded. Viewing a pending query escalates it to
// "in progress".
func (c *Controller) Select(ctx context.Context, q domain.Query) error {
	c.mu.Lock()
	c.state = StateIdle
	c.buffered = nil
	active := q
	c.active = &active
	c.state = StateLoadingHistory
	c.mu.Unlock()

	if err := c.transport.FetchHistory(q.ID); err != nil {
		c.mu.Lock()
		if c.active != nil && c.active.ID == q.ID {
			c.state = StateIdle
			c.active = nil
		}
		c.mu.Unlock()
		return err
	}

	if q.Status == domain.StatusPending {
		status, err := c.policy.EscalateOnView(ctx, q)
		c.applyQueryStatus(q.ID, status)
		if err != nil {
			c.log.Warnf("escalate on view failed for query %s: %v", q.ID, err)
		}
	}
	return nil
}

// HandleHistory applies a chat_history event. Responses for anything other
// than the currently selected conversation are stale and dropped. Live
// messages that raced the history are flushed afterwards, in arrival order,
// so nothing received between fetch and response is lost.
func (c *Controller) HandleHistory(queryID string, messages []domain.Message) {
	c.mu.Lock()
	if c.active == nil || c.active.ID != queryID || c.state != StateLoadingHistory {
		c.mu.Unlock()
		c.log.Infof("discarding stale history for query %s", queryID)
		return
	}

	c.store.SetHistory(queryID, messages)
	pending := c.buffered
	c.buffered = nil
	for _, msg := range pending {
		c.store.Append(msg.QueryID, msg)
	}

	if c.active.Status == domain.StatusClosed {
		c.state = StateClosed
	} else {
		c.state = StateLive
	}
	c.mu.Unlock()

	for _, msg := range pending {
		c.ackIfClientMessage(msg)
	}
}

// HandleMessage applies a receive_message event. Messages for a non-active
// conversation are dropped; messages arriving while history is still in
// flight are buffered and applied after it.
func (c *Controller) HandleMessage(msg domain.Message) {
	c.mu.Lock()
	if c.active == nil || c.active.ID != msg.QueryID {
		c.mu.Unlock()
		return
	}
	if c.state == StateLoadingHistory {
		c.buffered = append(c.buffered, msg)
		c.mu.Unlock()
		return
	}
	c.store.Append(msg.QueryID, msg)
	c.mu.Unlock()

	c.ackIfClientMessage(msg)
}

// HandleStatusUpdate applies a message_status event.
func (c *Controller) HandleStatusUpdate(queryID, messageID string, status domain.DeliveryStatus) {
	c.store.UpdateStatus(queryID, messageID, status)
}

// ApplyQueryStatus folds in a status change observed outside the chat (a
// query list refresh, another admin closing the thread). A closed status
// ends the live session.
func (c *Controller) ApplyQueryStatus(queryID string, status domain.QueryStatus) {
	c.applyQueryStatus(queryID, status)
}

// Send runs the optimistic send protocol. Only permitted in the Live state;
// an empty body is a no-op. The optimistic entry is appended before the
// emit, so the message is visible immediately; the server echo resolves it
// via the store's temp-id rule. The first admin reply escalates the query
// to "answered".
func (c *Controller) Send(ctx context.Context, body string) error {
	body = strings.TrimSpace(body)

	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return legalaid_errors.ErrNoActiveConversation
	}
	if c.state == StateClosed || c.active.Status == domain.StatusClosed {
		c.mu.Unlock()
		return legalaid_errors.ErrConversationClosed
	}
	if c.state != StateLive {
		c.mu.Unlock()
		return legalaid_errors.ErrNoActiveConversation
	}
	if body == "" {
		c.mu.Unlock()
		return nil
	}

	q := *c.active
	firstReply := !c.store.HasAdminReply(q.ID)

	now := c.tempTimestampLocked()
	msg := domain.Message{
		ID:         domain.NewTempID(now),
		QueryID:    q.ID,
		SenderID:   c.adminID,
		SenderRole: domain.RoleAdmin,
		Body:       body,
		CreatedAt:  now,
		Status:     domain.DeliverySending,
	}
	c.store.Append(q.ID, msg)
	c.mu.Unlock()

	if err := c.transport.SendMessage(q.ID, q.Submitter.ID, body, msg.ID); err != nil {
		// The optimistic entry stays visible at "sending"; the caller
		// surfaces the failure.
		return err
	}

	if firstReply && q.Status != domain.StatusAnswered && q.Status != domain.StatusClosed {
		status, err := c.policy.EscalateOnReply(ctx, q)
		c.applyQueryStatus(q.ID, status)
		if err != nil {
			c.log.Warnf("escalate on reply failed for query %s: %v", q.ID, err)
		}
	}
	return nil
}

// CloseConversation moves the active query to its terminal state. No-op
// when already closed. Once closed, Send is rejected.
func (c *Controller) CloseConversation(ctx context.Context) error {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return legalaid_errors.ErrNoActiveConversation
	}
	if c.active.Status == domain.StatusClosed {
		c.mu.Unlock()
		return nil
	}
	q := *c.active
	c.mu.Unlock()

	status, err := c.policy.Close(ctx, q)
	c.applyQueryStatus(q.ID, status)
	return err
}

func (c *Controller) ackIfClientMessage(msg domain.Message) {
	if msg.SenderRole != domain.RoleClient {
		return
	}
	if err := c.transport.AcknowledgeDelivery(msg.ID, msg.SenderID); err != nil {
		c.log.Warnf("delivery ack for %s failed: %v", msg.ID, err)
	}
}

func (c *Controller) applyQueryStatus(queryID string, status domain.QueryStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.ID != queryID {
		return
	}
	c.active.Status = status
	if status == domain.StatusClosed {
		c.state = StateClosed
	}
}

// tempTimestampLocked returns a strictly increasing timestamp so two rapid
// sends never collide on the millisecond-derived temp id. Caller holds c.mu.
func (c *Controller) tempTimestampLocked() time.Time {
	now := time.Now()
	if !now.After(c.lastTemp) {
		now = c.lastTemp.Add(time.Millisecond)
	}
	c.lastTemp = now
	return now
}
