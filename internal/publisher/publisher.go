package publisher

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/pubsub"
	"github.com/flexprice/paygate/internal/types"
)

// Message attribute names attached to every published payload. Downstream
// consumers and operators filter on these without parsing the body.
const (
	AttributeTenantID        = "tenantId"
	AttributeExternalEventID = "externalEventId"
)

// Metadata is the routable metadata published alongside the raw payload
type Metadata struct {
	TenantID        string
	ExternalEventID string
}

// RawPublisher hands the exact raw payload bytes to the queue. The body is
// never transformed on the way in so that the consumer verifies and parses
// exactly what the provider sent.
type RawPublisher interface {
	PublishRaw(ctx context.Context, payload []byte, meta Metadata) error
	Close() error
}

type pubsubPublisher struct {
	pubSub pubsub.Publisher
	config *config.WebhookConfig
	logger *logger.Logger
}

// NewPubSubPublisher creates a RawPublisher backed by the watermill pubsub
// (memory or Kafka depending on configuration).
func NewPubSubPublisher(
	pubSub pubsub.Publisher,
	cfg *config.Configuration,
	logger *logger.Logger,
) RawPublisher {
	return &pubsubPublisher{
		pubSub: pubSub,
		config: &cfg.Webhook,
		logger: logger,
	}
}

func (p *pubsubPublisher) PublishRaw(ctx context.Context, payload []byte, meta Metadata) error {
	messageID := meta.ExternalEventID
	if messageID == "" {
		messageID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MESSAGE)
	}

	msg := message.NewMessage(messageID, payload)
	msg.Metadata.Set(AttributeTenantID, meta.TenantID)
	msg.Metadata.Set(AttributeExternalEventID, meta.ExternalEventID)

	p.logger.Debugw("publishing raw webhook payload",
		"external_event_id", meta.ExternalEventID,
		"tenant_id", meta.TenantID,
		"topic", p.config.Topic,
	)

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish raw webhook payload",
			"error", err,
			"external_event_id", meta.ExternalEventID,
			"tenant_id", meta.TenantID,
		)
		return err
	}

	return nil
}

func (p *pubsubPublisher) Close() error {
	return p.pubSub.Close()
}
