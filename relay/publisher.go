package relay

import (
	"context"
	"fmt"

	"github.com/techagentng/marketplace/models"
	"github.com/techagentng/marketplace/pubsub"
)

// GroupName is the broadcast group for a chat room.
func GroupName(roomID uint) string {
	return fmt.Sprintf("chat_%d", roomID)
}

// Publisher broadcasts stored messages to their room's group.
type Publisher struct {
	broker pubsub.Broker
}

func NewPublisher(broker pubsub.Broker) *Publisher {
	return &Publisher{broker: broker}
}

func (p *Publisher) PublishMessage(ctx context.Context, msg *models.Message) error {
	payload, err := Encode(NewChatMessage(msg))
	if err != nil {
		return err
	}
	return p.broker.Publish(ctx, GroupName(msg.ChatRoomID), payload)
}
