package transport

import (
	"encoding/json"

	"legalaid-admin/internal/domain"
)

// Socket event names. The contract is bidirectional JSON over a single
// websocket; every frame is an Envelope.
const (
	EventConnectUser    = "connect_user"
	EventFetchHistory   = "fetch_history"
	EventChatHistory    = "chat_history"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventDelivered      = "delivered"
	EventMessageStatus  = "message_status"
	EventOnlineUsers    = "online_users"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals a payload into an Envelope.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

type FetchHistoryPayload struct {
	QueryID string `json:"queryId"`
}

// ChatHistoryPayload carries the full history for one conversation. The
// query id travels alongside the messages so an empty history is still
// attributable to its conversation.
type ChatHistoryPayload struct {
	QueryID string           `json:"queryId"`
	Chats   []domain.Message `json:"chats"`
}

type SendMessagePayload struct {
	QueryID    string `json:"queryId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
	TempID     string `json:"tempId,omitempty"`
}

type DeliveredPayload struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
}

type MessageStatusPayload struct {
	QueryID   string                `json:"queryId"`
	MessageID string                `json:"messageId"`
	Status    domain.DeliveryStatus `json:"status"`
	UserID    string                `json:"userId"`
}

type OnlineUsersPayload struct {
	Users []domain.User `json:"users"`
}
