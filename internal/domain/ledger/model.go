package ledger

import (
	"fmt"
	"time"

	"github.com/flexprice/paygate/internal/types"
)

// The three record kinds share one table; pk namespaces keep them from
// colliding.
const (
	EventKeyPrefix   = "event#"
	PaymentKeyPrefix = "payment#"
	OrderKeyPrefix   = "order#"
)

// EventKey returns the storage key for an event record. Event records are
// keyed by the raw external event id.
func EventKey(eventID string) string {
	return fmt.Sprintf("%s%s", EventKeyPrefix, eventID)
}

// PaymentKey returns the storage key for a payment summary.
func PaymentKey(paymentID string) string {
	return fmt.Sprintf("%s%s", PaymentKeyPrefix, paymentID)
}

// OrderKey returns the storage key for an order aggregate.
func OrderKey(orderID string) string {
	return fmt.Sprintf("%s%s", OrderKeyPrefix, orderID)
}

// SchemaVersion tags event records so a future migration can tell apart
// records written by older deployments.
const SchemaVersion = 1

// EventRecord is the durable identity of one webhook event. At most one
// record exists per event id, and ProcessedAt is write-once: its presence
// is the idempotency fence.
type EventRecord struct {
	EventID       string            `json:"event_id"`
	TenantID      string            `json:"tenant_id"`
	Type          string            `json:"type"`
	Status        types.EventStatus `json:"status"`
	SchemaVersion int               `json:"schema_version"`
	CreatedAt     time.Time         `json:"created_at"`
	ProcessedAt   *time.Time        `json:"processed_at,omitempty"`
}

// ProcessedUpdate carries the fields the consumer writes when it wins the
// idempotency fence for an event.
type ProcessedUpdate struct {
	TenantID    string
	Type        string
	CreatedAt   time.Time
	ProcessedAt time.Time
}

// PaymentSummary is the last-writer-wins projection of one payment. It is
// safe to overwrite wholesale because every write is gated by the
// per-event fence.
type PaymentSummary struct {
	PaymentID     string              `json:"payment_id"`
	OrderID       string              `json:"order_id"`
	Status        types.PaymentStatus `json:"status"`
	AmountCents   int64               `json:"amount_cents"`
	Currency      string              `json:"currency"`
	LastUpdatedAt time.Time           `json:"last_updated_at"`
}

// OrderAggregate is the running signed total of applied payment deltas for
// one order. AmountCents is only ever adjusted by atomic addition, never
// overwritten, so deltas commute regardless of delivery order.
type OrderAggregate struct {
	OrderID       string    `json:"order_id"`
	AmountCents   int64     `json:"amount_cents"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}
