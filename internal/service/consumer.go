package service

import (
	"context"
	"time"

	"github.com/flexprice/paygate/internal/domain/events"
	"github.com/flexprice/paygate/internal/domain/ledger"
	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/types"
)

// BatchConsumer applies queued webhook payloads to the ledger with
// per-message fault isolation: one malformed or failing message never
// fails the batch, and a redelivered message never re-runs business
// effects. Consume returns the identifiers of the messages that must be
// redelivered; everything else is implicitly acknowledged.
type BatchConsumer interface {
	Consume(ctx context.Context, batch []types.QueueMessage) []string
	ProcessMessage(ctx context.Context, msg types.QueueMessage) error
}

type batchConsumer struct {
	ServiceParams
	reconciler Reconciler
}

func NewBatchConsumer(params ServiceParams, reconciler Reconciler) BatchConsumer {
	return &batchConsumer{
		ServiceParams: params,
		reconciler:    reconciler,
	}
}

func (c *batchConsumer) Consume(ctx context.Context, batch []types.QueueMessage) []string {
	var failed []string
	for _, msg := range batch {
		if err := c.ProcessMessage(ctx, msg); err != nil {
			c.Logger.Errorw("message processing failed",
				"error", err,
				"message_id", msg.ID,
			)
			failed = append(failed, msg.ID)
		}
	}
	return failed
}

// ProcessMessage runs the fence-then-reconcile sequence for one message.
func (c *batchConsumer) ProcessMessage(ctx context.Context, msg types.QueueMessage) error {
	event, err := events.ParseInbound(msg.Body)
	if err != nil {
		// At this stage a malformed body is a per-message failure; the
		// gateway only synthesizes identifiers on the way in.
		return ierr.WithError(err).
			WithHint("Queued payload is not valid JSON").
			Mark(ierr.ErrValidation)
	}
	if event.ID == "" {
		return ierr.NewError("queued payload has no event id").
			WithHint("Cannot fence an event without an identifier").
			Mark(ierr.ErrValidation)
	}

	now := time.Now().UTC()
	err = c.LedgerRepo.MarkProcessed(ctx, event.ID, ledger.ProcessedUpdate{
		TenantID:    event.TenantID(),
		Type:        event.Type,
		CreatedAt:   event.CreatedAt(now),
		ProcessedAt: now,
	})
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			// Fence already won by an earlier delivery: the message is
			// handled, not failed, and business effects must not re-run.
			c.Logger.Debugw("duplicate delivery skipped",
				"event_id", event.ID,
				"message_id", msg.ID,
			)
			return nil
		}
		return err
	}

	if err := c.reconciler.Apply(ctx, event); err != nil {
		// The fence is already won, so redelivery of this message will be
		// skipped: the event stays marked processed without its effects.
		// That gap needs out-of-band replay, so it must be loud.
		c.Logger.Errorw("reconciliation failed after idempotency fence",
			"error", err,
			"event_id", event.ID,
			"message_id", msg.ID,
			"alert", true,
		)
		return err
	}

	return nil
}
