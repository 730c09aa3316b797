package kafka

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/ledger/internal/config"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/pubsub"
)

// PubSub publishes ledger events to kafka. Each consumer reads with its own
// consumer group so every collaborator receives every event.
type PubSub struct {
	publisher   message.Publisher
	subscribers []message.Subscriber
	mu          sync.Mutex
	config      *config.Configuration
	logger      *logger.Logger
}

// NewPubSub creates a new kafka-based pubsub
func NewPubSub(cfg *config.Configuration, logger *logger.Logger) (pubsub.PubSub, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cfg.Kafka.Brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: GetSaramaConfig(cfg),
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not connect to kafka").
			Mark(ierr.ErrSystem)
	}

	return &PubSub{
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}, nil
}

// Publish publishes a ledger event message
func (p *PubSub) Publish(_ context.Context, topic string, msg *message.Message) error {
	return p.publisher.Publish(topic, msg)
}

// SubscriberFor creates a subscriber in the consumer group <group>_<consumer>
func (p *PubSub) SubscriberFor(consumer string) (message.Subscriber, error) {
	group := p.config.Kafka.ConsumerGroup + "_" + consumer

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               p.config.Kafka.Brokers,
			ConsumerGroup:         group,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: GetSaramaConfig(p.config),
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not subscribe consumer group %s", group).
			Mark(ierr.ErrSystem)
	}

	p.mu.Lock()
	p.subscribers = append(p.subscribers, subscriber)
	p.mu.Unlock()

	p.logger.Infow("kafka subscriber created", "consumer_group", group)
	return subscriber, nil
}

// Close closes the publisher and every subscriber
func (p *PubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.subscribers {
		if err := s.Close(); err != nil {
			p.logger.Errorw("failed to close kafka subscriber", "error", err)
		}
	}
	return p.publisher.Close()
}
