package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryStatus tracks how far a message has progressed from the sender's
// point of view.
type DeliveryStatus string

const (
	DeliverySending   DeliveryStatus = "sending"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
)

// SenderRole identifies which side of a support thread authored a message.
type SenderRole string

const (
	RoleClient SenderRole = "Client"
	RoleAdmin  SenderRole = "Admin"
)

// Message is one entry in a conversation. The wire shape mirrors the
// platform API: `_id` is server-assigned once persisted; before confirmation
// the client uses a temporary id of the form "temp-<unix-millis>".
type Message struct {
	ID         string         `json:"_id"`
	QueryID    string         `json:"queryId"`
	SenderID   string         `json:"senderId"`
	SenderRole SenderRole     `json:"senderRole"`
	Body       string         `json:"message"`
	CreatedAt  time.Time      `json:"createdAt"`
	Status     DeliveryStatus `json:"status"`

	// TempID is set on server echoes of a message that was sent with a
	// client temp id, so the optimistic entry can be resolved in place.
	TempID string `json:"tempId,omitempty"`
}

const tempIDPrefix = "temp-"

// NewTempID returns a client-side temporary message id.
func NewTempID(now time.Time) string {
	return fmt.Sprintf("%s%d", tempIDPrefix, now.UnixMilli())
}

// IsTemp reports whether the message still carries a client temp id.
func (m Message) IsTemp() bool {
	return strings.HasPrefix(m.ID, tempIDPrefix)
}
