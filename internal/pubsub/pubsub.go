package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher defines the interface for publishing ledger events
type Publisher interface {
	// Publish publishes a message on topic
	Publish(ctx context.Context, topic string, msg *message.Message) error
	// Close closes the publisher
	Close() error
}

// PubSub is the ledger event bus. Every consumer gets its own subscriber, so
// each collaborator sees every event independently of the others.
type PubSub interface {
	Publisher
	// SubscriberFor returns the subscriber of the named consumer
	SubscriberFor(consumer string) (message.Subscriber, error)
}
