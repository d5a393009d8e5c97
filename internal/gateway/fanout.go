package gateway

import (
	"context"
	"encoding/json"

	"legalaid-admin/pkg/logger"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const fanoutChannel = "chat:frames"

// fanoutFrame is the relay envelope between gateway instances. An empty
// UserID means the frame goes to every connection.
type fanoutFrame struct {
	Origin string          `json:"origin"`
	UserID string          `json:"userId,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// Fanout relays user-addressed frames to the other gateway instances, so a
// recipient connected elsewhere still gets its delivery.
type Fanout struct {
	client   *goredis.Client
	hub      *Hub
	instance string
	log      *logger.Logger
}

func NewFanout(client *goredis.Client, hub *Hub, log *logger.Logger) *Fanout {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fanout{
		client:   client,
		hub:      hub,
		instance: uuid.New().String(),
		log:      log,
	}
}

func (f *Fanout) PublishToUser(ctx context.Context, userID string, frame []byte) error {
	return f.publish(ctx, fanoutFrame{Origin: f.instance, UserID: userID, Frame: frame})
}

func (f *Fanout) PublishAll(ctx context.Context, frame []byte) error {
	return f.publish(ctx, fanoutFrame{Origin: f.instance, Frame: frame})
}

func (f *Fanout) publish(ctx context.Context, msg fanoutFrame) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, fanoutChannel, payload).Err()
}

// Run consumes relayed frames until the context is cancelled. Frames this
// instance published are skipped: the local hub already delivered them.
func (f *Fanout) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, fanoutChannel)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var frame fanoutFrame
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			f.log.Warnf("bad fanout frame: %v", err)
			continue
		}
		if frame.Origin == f.instance {
			continue
		}
		if frame.UserID == "" {
			f.hub.BroadcastAll(frame.Frame)
		} else {
			f.hub.BroadcastToUser(frame.UserID, frame.Frame)
		}
	}
}
