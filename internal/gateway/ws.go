package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"legalaid-admin/internal/domain"
	"legalaid-admin/internal/gateway/httpdto"
	"legalaid-admin/internal/transport"
	legalaid_errors "legalaid-admin/pkg/errors"
	"legalaid-admin/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler terminates chat websockets and implements the socket event
// contract against the gateway's state.
type WSHandler struct {
	hub      *Hub
	state    *State
	presence PresenceTracker
	sessions *SessionService
	archive  *Archive
	fanout   *Fanout
	log      *logger.Logger
}

func NewWSHandler(hub *Hub, state *State, presence PresenceTracker, sessions *SessionService, archive *Archive, fanout *Fanout, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &WSHandler{
		hub:      hub,
		state:    state,
		presence: presence,
		sessions: sessions,
		archive:  archive,
		fanout:   fanout,
		log:      log,
	}
}

// Connect upgrades the request and runs the read loop until the peer goes
// away. The session cookie authenticates the socket the same way it does
// the REST surface.
func (h *WSHandler) Connect(c *gin.Context) {
	claims, err := h.sessions.FromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, claims.UserID, claims.Role)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var env transport.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.log.Warnf("bad frame from %s: %v", client.UserID, err)
			continue
		}
		h.handleEvent(ctx, client, env)
	}

	h.hub.Unregister(client)
	if err := h.presence.Disconnect(ctx, client.UserID); err != nil {
		h.log.Warnf("presence disconnect for %s: %v", client.UserID, err)
	}
	h.broadcastOnline(ctx)
}

func (h *WSHandler) handleEvent(ctx context.Context, client *Client, env transport.Envelope) {
	switch env.Event {
	case transport.EventConnectUser:
		if err := h.presence.Connect(ctx, client.UserID); err != nil {
			h.log.Warnf("presence connect for %s: %v", client.UserID, err)
		}
		h.broadcastOnline(ctx)

	case transport.EventFetchHistory:
		var p transport.FetchHistoryPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.sendTo(client, transport.EventChatHistory, transport.ChatHistoryPayload{
			QueryID: p.QueryID,
			Chats:   h.state.History(p.QueryID),
		})

	case transport.EventSendMessage:
		var p transport.SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		role := domain.RoleClient
		if client.Role == "Admin" {
			role = domain.RoleAdmin
		}
		msg, err := h.state.AppendMessage(p.QueryID, client.UserID, role, p.Message, p.TempID)
		if err != nil {
			if errors.Is(err, legalaid_errors.ErrConversationClosed) {
				h.log.Warnf("rejected send into closed query %s by %s", p.QueryID, client.UserID)
			} else {
				h.log.Warnf("send_message failed: %v", err)
			}
			return
		}

		// Echo to the sender (temp id intact so the optimistic entry
		// resolves) and deliver to the recipient.
		h.broadcastToUser(client.UserID, transport.EventReceiveMessage, msg)
		if p.ReceiverID != "" && p.ReceiverID != client.UserID {
			delivered := msg
			delivered.TempID = ""
			h.broadcastToUser(p.ReceiverID, transport.EventReceiveMessage, delivered)
		}

		if h.archive != nil {
			go h.archive.Insert(context.Background(), msg)
		}

	case transport.EventDelivered:
		var p transport.DeliveredPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		msg, err := h.state.UpdateMessageStatus(p.MessageID, domain.DeliveryDelivered)
		if err != nil {
			return
		}
		h.broadcastToUser(msg.SenderID, transport.EventMessageStatus, transport.MessageStatusPayload{
			QueryID:   msg.QueryID,
			MessageID: msg.ID,
			Status:    domain.DeliveryDelivered,
			UserID:    client.UserID,
		})

	default:
		h.log.Warnf("unknown event %q from %s", env.Event, client.UserID)
	}
}

func (h *WSHandler) broadcastOnline(ctx context.Context) {
	ids, err := h.presence.Online(ctx)
	if err != nil {
		h.log.Warnf("online set unavailable: %v", err)
		return
	}
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, err := h.state.User(id); err == nil {
			users = append(users, u)
		}
	}
	env, err := transport.NewEnvelope(transport.EventOnlineUsers, transport.OnlineUsersPayload{Users: users})
	if err != nil {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	h.hub.BroadcastAll(data)
	if h.fanout != nil {
		if err := h.fanout.PublishAll(ctx, data); err != nil {
			h.log.Warnf("fanout publish: %v", err)
		}
	}
}

func (h *WSHandler) sendTo(client *Client, event string, payload any) {
	env, err := transport.NewEnvelope(event, payload)
	if err != nil {
		h.log.Errorf("marshal %s: %v", event, err)
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	client.SendFrame(data)
}

func (h *WSHandler) broadcastToUser(userID, event string, payload any) {
	env, err := transport.NewEnvelope(event, payload)
	if err != nil {
		h.log.Errorf("marshal %s: %v", event, err)
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	h.hub.BroadcastToUser(userID, data)
	if h.fanout != nil {
		if err := h.fanout.PublishToUser(context.Background(), userID, data); err != nil {
			h.log.Warnf("fanout publish: %v", err)
		}
	}
}
