package kafka

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	wkafka "github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/pubsub"
)

// PubSub implements the pubsub contract on Kafka through watermill.
// Ordering is per partition, delivery is at least once; the consumer's
// idempotency fence absorbs redeliveries.
type PubSub struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	config     *config.Configuration
	logger     *logger.Logger
}

// NewPubSub creates a new kafka-based pubsub
func NewPubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) (pubsub.PubSub, error) {
	saramaConfig := GetSaramaConfig(cfg)

	publisher, err := wkafka.NewPublisher(
		wkafka.PublisherConfig{
			Brokers:               cfg.Kafka.Brokers,
			Marshaler:             wkafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	subscriber, err := wkafka.NewSubscriber(
		wkafka.SubscriberConfig{
			Brokers:               cfg.Kafka.Brokers,
			ConsumerGroup:         cfg.Kafka.ConsumerGroup,
			Unmarshaler:           wkafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	return &PubSub{
		publisher:  publisher,
		subscriber: subscriber,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Publish publishes a raw payload message
func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	return p.publisher.Publish(topic, msg)
}

// Subscribe starts consuming messages from the topic
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.subscriber.Subscribe(ctx, topic)
}

// Close closes the pubsub
func (p *PubSub) Close() error {
	if err := p.publisher.Close(); err != nil {
		p.logger.Errorw("failed to close kafka publisher", "error", err)
	}
	return p.subscriber.Close()
}
