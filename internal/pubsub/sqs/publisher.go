package sqs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/publisher"
)

// Publisher implements publisher.RawPublisher on SQS. The payload goes in
// the message body untouched; tenant and event id travel as message
// attributes for downstream filtering.
type Publisher struct {
	client *Client
	logger *logger.Logger
}

func NewPublisher(client *Client, logger *logger.Logger) publisher.RawPublisher {
	return &Publisher{
		client: client,
		logger: logger,
	}
}

func (p *Publisher) PublishRaw(ctx context.Context, payload []byte, meta publisher.Metadata) error {
	_, err := p.client.SQS().SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.client.QueueURL()),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			publisher.AttributeTenantID: {
				DataType:    aws.String("String"),
				StringValue: aws.String(meta.TenantID),
			},
			publisher.AttributeExternalEventID: {
				DataType:    aws.String("String"),
				StringValue: aws.String(meta.ExternalEventID),
			},
		},
	})
	if err != nil {
		p.logger.Errorw("failed to publish payload to sqs",
			"error", err,
			"external_event_id", meta.ExternalEventID,
			"tenant_id", meta.TenantID,
		)
		return ierr.WithError(err).
			WithHint("Failed to publish payload to queue").
			Mark(ierr.ErrSystem)
	}

	return nil
}

func (p *Publisher) Close() error {
	return nil
}
