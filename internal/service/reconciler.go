package service

import (
	"context"
	"time"

	"github.com/flexprice/paygate/internal/domain/events"
	"github.com/flexprice/paygate/internal/domain/ledger"
	"github.com/flexprice/paygate/internal/types"
)

// Reconciler maps provider events onto ledger deltas: a last-writer-wins
// payment summary and a commutative, atomically-added order total. It must
// only be invoked after the idempotency fence has been won for the event,
// which is what makes the summary overwrite safe.
type Reconciler interface {
	Apply(ctx context.Context, event *events.InboundEvent) error
}

type reconciler struct {
	ServiceParams
}

func NewReconciler(params ServiceParams) Reconciler {
	return &reconciler{ServiceParams: params}
}

func (r *reconciler) Apply(ctx context.Context, event *events.InboundEvent) error {
	kind := event.Kind()
	if kind == events.KindUnhandled {
		// The event is still marked processed by the caller; there is just
		// nothing to reconcile for this type.
		r.Logger.Infow("unhandled event type, no ledger effects",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return nil
	}

	obj, err := event.PaymentObject()
	if err != nil {
		return err
	}

	var (
		status     types.PaymentStatus
		amount     int64
		orderDelta int64
	)
	switch kind {
	case events.KindPaymentSucceeded:
		status = types.PaymentStatusSucceeded
		amount = obj.ReceivedAmount()
		orderDelta = amount
	case events.KindPaymentFailed:
		status = types.PaymentStatusFailed
		amount = 0
		orderDelta = 0
	case events.KindChargeRefunded:
		status = types.PaymentStatusRefunded
		amount = -obj.RefundedAmount()
		orderDelta = amount
	}

	orderID := obj.ResolveOrderID()
	summary := &ledger.PaymentSummary{
		PaymentID:     obj.PaymentID(),
		OrderID:       orderID,
		Status:        status,
		AmountCents:   amount,
		Currency:      obj.CurrencyOrDefault(),
		LastUpdatedAt: time.Now().UTC(),
	}
	if err := r.LedgerRepo.UpsertPaymentSummary(ctx, summary); err != nil {
		return err
	}

	if orderDelta != 0 {
		if err := r.LedgerRepo.AddToOrderTotal(ctx, orderID, orderDelta); err != nil {
			return err
		}
	}

	r.Logger.Infow("ledger deltas applied",
		"event_id", event.ID,
		"event_kind", kind.String(),
		"payment_id", summary.PaymentID,
		"order_id", orderID,
		"amount_cents", amount,
	)

	return nil
}
