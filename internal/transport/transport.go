package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"legalaid-admin/internal/domain"
	legalaid_errors "legalaid-admin/pkg/errors"
	"legalaid-admin/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	readWait       = 60 * time.Second
	sendBufferSize = 256
)

type connState int

const (
	stateIdle connState = iota
	stateConnected
	stateReconnecting
	stateDown
	stateClosed
)

// Options tunes the reconnect policy and the dial handshake.
type Options struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration

	// Header is sent on every dial, including redials. Carries the
	// session cookie so the gateway can authenticate the socket.
	Header http.Header
}

// Transport owns the single shared socket connection to the platform
// gateway. Handlers must be registered before Connect; dispatch runs on the
// read pump goroutine, so events are delivered in arrival order.
type Transport struct {
	url      string
	dialer   *websocket.Dialer
	header   http.Header
	log      *logger.Logger
	attempts int
	delay    time.Duration

	mu    sync.Mutex
	conn  *websocket.Conn
	state connState
	send  chan Envelope
	stop  chan struct{} // closed when the current connection's pumps must exit

	onHistory func(queryID string, messages []domain.Message)
	onMessage func(domain.Message)
	onStatus  func(queryID, messageID string, status domain.DeliveryStatus)
	onOnline  func([]domain.User)
	onState   func(connected bool)
}

// New creates a Transport for the given websocket URL. It does not dial.
func New(url string, opts Options, log *logger.Logger) *Transport {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = 5
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Transport{
		url:      url,
		dialer:   websocket.DefaultDialer,
		header:   opts.Header,
		log:      log,
		attempts: opts.ReconnectAttempts,
		delay:    opts.ReconnectDelay,
		state:    stateIdle,
		send:     make(chan Envelope, sendBufferSize),
	}
}

func (t *Transport) OnChatHistory(fn func(queryID string, messages []domain.Message)) {
	t.onHistory = fn
}

func (t *Transport) OnMessageReceived(fn func(domain.Message)) {
	t.onMessage = fn
}

func (t *Transport) OnMessageStatus(fn func(queryID, messageID string, status domain.DeliveryStatus)) {
	t.onStatus = fn
}

func (t *Transport) OnOnlineUsers(fn func([]domain.User)) {
	t.onOnline = fn
}

// OnConnectionState is invoked with false when the reconnect budget is
// exhausted and with true whenever a connection is (re)established.
func (t *Transport) OnConnectionState(fn func(connected bool)) {
	t.onState = fn
}

// Connect opens the connection if it is not already open. Idempotent. On
// success it announces presence so the gateway adds this actor to the
// online set.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateConnected, stateReconnecting:
		return nil
	case stateClosed:
		return legalaid_errors.ErrNotConnected
	}

	conn, _, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return err
	}
	t.startLocked(conn)
	t.log.Infof("socket connected to %s", t.url)
	return nil
}

// Close tears down the connection and stops any reconnection. Idempotent.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == stateClosed {
		return
	}
	t.state = stateClosed
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}

// FetchHistory requests the full message history for a conversation. The
// result arrives asynchronously through the chat_history handler.
func (t *Transport) FetchHistory(queryID string) error {
	return t.emit(EventFetchHistory, FetchHistoryPayload{QueryID: queryID})
}

// SendMessage emits a message-send request. Fire and forget: the persisted
// message comes back through receive_message.
func (t *Transport) SendMessage(queryID, receiverID, body, tempID string) error {
	return t.emit(EventSendMessage, SendMessagePayload{
		QueryID:    queryID,
		ReceiverID: receiverID,
		Message:    body,
		TempID:     tempID,
	})
}

// AcknowledgeDelivery tells the gateway a message reached this client.
func (t *Transport) AcknowledgeDelivery(messageID, senderID string) error {
	return t.emit(EventDelivered, DeliveredPayload{MessageID: messageID, SenderID: senderID})
}

func (t *Transport) emit(event string, payload any) error {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	state := t.state
	t.mu.Unlock()
	// Emits during a reconnect window are queued on the send channel and
	// flushed once the connection is back.
	switch state {
	case stateConnected, stateReconnecting:
	case stateDown:
		return legalaid_errors.ErrReconnectExhausted
	default:
		return legalaid_errors.ErrNotConnected
	}

	select {
	case t.send <- env:
		return nil
	default:
		return legalaid_errors.ErrNotConnected
	}
}

// startLocked attaches pumps to a fresh connection. Caller holds t.mu.
func (t *Transport) startLocked(conn *websocket.Conn) {
	t.conn = conn
	t.state = stateConnected
	stop := make(chan struct{})
	t.stop = stop

	go t.writePump(conn, stop)
	go t.readPump(conn, stop)

	env, _ := NewEnvelope(EventConnectUser, nil)
	select {
	case t.send <- env:
	default:
	}
	if t.onState != nil {
		go t.onState(true)
	}
}

func (t *Transport) writePump(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case env := <-t.send:
			data, err := json.Marshal(env)
			if err != nil {
				t.log.Errorf("marshal frame: %v", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				t.log.Errorf("socket write: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (t *Transport) readPump(conn *websocket.Conn, stop chan struct{}) {
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			t.handleDisconnect(conn)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.log.Warnf("bad frame: %v", err)
			continue
		}
		t.dispatch(env)
	}
}

func (t *Transport) dispatch(env Envelope) {
	switch env.Event {
	case EventChatHistory:
		var p ChatHistoryPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			t.log.Warnf("bad chat_history payload: %v", err)
			return
		}
		if t.onHistory != nil {
			t.onHistory(p.QueryID, p.Chats)
		}
	case EventReceiveMessage:
		var msg domain.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			t.log.Warnf("bad receive_message payload: %v", err)
			return
		}
		if t.onMessage != nil {
			t.onMessage(msg)
		}
	case EventMessageStatus:
		var p MessageStatusPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			t.log.Warnf("bad message_status payload: %v", err)
			return
		}
		if t.onStatus != nil {
			t.onStatus(p.QueryID, p.MessageID, p.Status)
		}
	case EventOnlineUsers:
		var p OnlineUsersPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			t.log.Warnf("bad online_users payload: %v", err)
			return
		}
		if t.onOnline != nil {
			t.onOnline(p.Users)
		}
	default:
		t.log.Warnf("unknown event %q", env.Event)
	}
}

// handleDisconnect runs the bounded reconnect loop: fixed delay, fixed
// attempt budget, presence re-announced on every successful redial. On
// exhaustion the connection-state handler is told the transport is down;
// nothing is dropped silently.
func (t *Transport) handleDisconnect(dead *websocket.Conn) {
	t.mu.Lock()
	if t.state != stateConnected || t.conn != dead {
		t.mu.Unlock()
		return
	}
	t.state = stateReconnecting
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	_ = dead.Close()
	t.conn = nil
	t.mu.Unlock()

	t.log.Warnf("socket disconnected, reconnecting (%d attempts, %s apart)", t.attempts, t.delay)

	for attempt := 1; attempt <= t.attempts; attempt++ {
		time.Sleep(t.delay)

		t.mu.Lock()
		if t.state != stateReconnecting {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		conn, _, err := t.dialer.Dial(t.url, t.header)
		if err != nil {
			t.log.Warnf("reconnect attempt %d/%d failed: %v", attempt, t.attempts, err)
			continue
		}

		t.mu.Lock()
		if t.state != stateReconnecting {
			t.mu.Unlock()
			_ = conn.Close()
			return
		}
		t.startLocked(conn)
		t.mu.Unlock()
		t.log.Infof("socket reconnected after %d attempt(s)", attempt)
		return
	}

	t.mu.Lock()
	if t.state == stateReconnecting {
		t.state = stateDown
	}
	t.mu.Unlock()

	t.log.Errorf("reconnect attempts exhausted")
	if t.onState != nil {
		t.onState(false)
	}
}
