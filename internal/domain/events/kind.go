package events

// Provider event types handled by the reconciler
const (
	EventTypePaymentSucceeded = "payment_intent.succeeded"
	EventTypePaymentFailed    = "payment_intent.payment_failed"
	EventTypeChargeRefunded   = "charge.refunded"
)

// EventKind is the closed tagged variant over the handled subset of
// provider event types. Unrecognized types map to KindUnhandled and are
// still marked processed, just without ledger effects.
type EventKind int

const (
	KindUnhandled EventKind = iota
	KindPaymentSucceeded
	KindPaymentFailed
	KindChargeRefunded
)

func (k EventKind) String() string {
	switch k {
	case KindPaymentSucceeded:
		return "payment_succeeded"
	case KindPaymentFailed:
		return "payment_failed"
	case KindChargeRefunded:
		return "charge_refunded"
	default:
		return "unhandled"
	}
}
