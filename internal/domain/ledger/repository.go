package ledger

import (
	"context"
)

// Repository defines the conditional-write contract the pipeline relies on.
// There are no cross-record transactions: every guarantee rests on
// single-record conditional or atomic operations at the store.
type Repository interface {
	// StageEvent creates the event record if and only if no record exists
	// for its event id. A duplicate returns an error marked
	// ierr.ErrAlreadyExists; callers treat that as already-staged.
	StageEvent(ctx context.Context, record *EventRecord) error

	// MarkProcessed transitions the event record to PROCESSED, setting
	// processed_at exactly once. Losing the fence (processed_at already
	// present) returns an error marked ierr.ErrAlreadyExists; any other
	// failure is marked ierr.ErrDatabase.
	MarkProcessed(ctx context.Context, eventID string, update ProcessedUpdate) error

	// UpsertPaymentSummary overwrites the payment summary for the payment id.
	UpsertPaymentSummary(ctx context.Context, summary *PaymentSummary) error

	// AddToOrderTotal atomically adds deltaCents to the order's running
	// total, creating the aggregate on first touch.
	AddToOrderTotal(ctx context.Context, orderID string, deltaCents int64) error

	// Reads for operators and tests
	GetEventRecord(ctx context.Context, eventID string) (*EventRecord, error)
	GetPaymentSummary(ctx context.Context, paymentID string) (*PaymentSummary, error)
	GetOrderAggregate(ctx context.Context, orderID string) (*OrderAggregate, error)
}
