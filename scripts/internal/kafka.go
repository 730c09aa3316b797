package internal

import (
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/pubsub/kafka"
)

// TestKafkaConnection dials the configured brokers with the same settings the
// event bus uses and checks that the ledger topic exists
func TestKafkaConnection() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	saramaConfig := kafka.GetSaramaConfig(cfg)
	saramaConfig.Net.DialTimeout = 10 * time.Second
	saramaConfig.Net.ReadTimeout = 10 * time.Second
	saramaConfig.Net.WriteTimeout = 10 * time.Second

	client, err := sarama.NewClient(cfg.Kafka.Brokers, saramaConfig)
	if err != nil {
		return fmt.Errorf("error creating client: %v", err)
	}
	defer client.Close()

	topics, err := client.Topics()
	if err != nil {
		return fmt.Errorf("error listing topics: %v", err)
	}

	for _, topic := range topics {
		if topic == cfg.EventBus.Topic {
			fmt.Printf("Successfully connected! Topic %s is available\n", topic)
			return nil
		}
	}
	return fmt.Errorf("connected, but topic %s does not exist (found %v)", cfg.EventBus.Topic, topics)
}
