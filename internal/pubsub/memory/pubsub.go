package memory

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/pubsub"
)

// PubSub implements the event bus in process using watermill's gochannel.
// gochannel fans every message out to all subscribers of a topic.
type PubSub struct {
	pubsub *gochannel.GoChannel
	logger *logger.Logger
}

// NewPubSub creates a new memory-based pubsub
func NewPubSub(logger *logger.Logger) pubsub.PubSub {
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			// Keep messages published before the consumers subscribed
			Persistent:                     true,
			BlockPublishUntilSubscriberAck: false,
			OutputChannelBuffer:            100,
		},
		watermill.NewStdLogger(false, false),
	)

	return &PubSub{
		pubsub: goChannel,
		logger: logger,
	}
}

// Publish publishes a ledger event message
func (p *PubSub) Publish(_ context.Context, topic string, msg *message.Message) error {
	return p.pubsub.Publish(topic, msg)
}

// SubscriberFor returns the shared gochannel, which already fans out
func (p *PubSub) SubscriberFor(_ string) (message.Subscriber, error) {
	return p.pubsub, nil
}

// Close closes the underlying channel
func (p *PubSub) Close() error {
	return p.pubsub.Close()
}
