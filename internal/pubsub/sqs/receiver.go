package sqs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/samber/lo"

	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/types"
)

// ConsumeFunc processes one received batch and returns the identifiers of
// the messages that failed and must be redelivered.
type ConsumeFunc func(ctx context.Context, batch []types.QueueMessage) []string

// Receiver long-polls the queue and drives a ConsumeFunc with bounded
// batches. Messages the consumer does not report as failed are deleted;
// failed ones stay on the queue and reappear after the visibility timeout.
type Receiver struct {
	client *Client
	config *config.SQSConfig
	logger *logger.Logger
}

func NewReceiver(client *Client, cfg *config.Configuration, logger *logger.Logger) *Receiver {
	return &Receiver{
		client: client,
		config: &cfg.SQS,
		logger: logger,
	}
}

// Run polls until ctx is cancelled.
func (r *Receiver) Run(ctx context.Context, consume ConsumeFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.pollOnce(ctx, consume); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Errorw("sqs receive failed, continuing", "error", err)
		}
	}
}

func (r *Receiver) pollOnce(ctx context.Context, consume ConsumeFunc) error {
	resp, err := r.client.SQS().ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(r.client.QueueURL()),
		MaxNumberOfMessages: r.config.MaxBatchSize,
		WaitTimeSeconds:     r.config.WaitTimeSeconds,
		MessageAttributeNames: []string{
			"All",
		},
	})
	if err != nil {
		return err
	}
	if len(resp.Messages) == 0 {
		return nil
	}

	batch := make([]types.QueueMessage, 0, len(resp.Messages))
	receiptHandles := make(map[string]string, len(resp.Messages))
	for _, m := range resp.Messages {
		id := aws.ToString(m.MessageId)
		batch = append(batch, types.QueueMessage{
			ID:   id,
			Body: []byte(aws.ToString(m.Body)),
		})
		receiptHandles[id] = aws.ToString(m.ReceiptHandle)
	}

	failed := consume(ctx, batch)

	// Delete only the messages that were handled; failed ones become
	// redeliverable after the visibility timeout.
	entries := make([]sqstypes.DeleteMessageBatchRequestEntry, 0, len(batch))
	for _, m := range batch {
		if lo.Contains(failed, m.ID) {
			continue
		}
		entries = append(entries, sqstypes.DeleteMessageBatchRequestEntry{
			Id:            aws.String(m.ID),
			ReceiptHandle: aws.String(receiptHandles[m.ID]),
		})
	}
	if len(entries) == 0 {
		return nil
	}

	_, err = r.client.SQS().DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(r.client.QueueURL()),
		Entries:  entries,
	})
	if err != nil {
		// Deletion failure means redelivery of handled messages; the
		// idempotency fence makes that safe, so log and move on.
		r.logger.Errorw("failed to delete handled messages", "error", err)
	}

	return nil
}
