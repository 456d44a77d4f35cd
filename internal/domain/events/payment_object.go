package events

const (
	// UnknownOrderID is recorded when an event carries no order linkage,
	// so unresolvable deltas stay visible for manual reconciliation
	// instead of being dropped.
	UnknownOrderID = "unknown"

	// DefaultCurrency is assumed when the provider object omits one
	DefaultCurrency = "usd"
)

// PaymentObject is the typed view of data.object for payment-shaped
// events. All amounts are signed integers in the smallest currency unit;
// this path never touches floating point.
type PaymentObject struct {
	ID             string            `json:"id"`
	PaymentIntent  string            `json:"payment_intent"`
	Amount         int64             `json:"amount"`
	AmountReceived int64             `json:"amount_received"`
	AmountRefunded int64             `json:"amount_refunded"`
	Currency       string            `json:"currency"`
	OrderID        string            `json:"order_id"`
	Metadata       map[string]string `json:"metadata"`
}

// PaymentID normalizes onto the payment-intent identifier when the object
// is a charge carrying one, falling back to the object's own id.
func (o *PaymentObject) PaymentID() string {
	if o.PaymentIntent != "" {
		return o.PaymentIntent
	}
	return o.ID
}

// ResolveOrderID resolves the order linkage: explicit metadata first, then
// the direct order_id field, else the unknown sentinel. Never fails.
func (o *PaymentObject) ResolveOrderID() string {
	if o.Metadata != nil && o.Metadata["order_id"] != "" {
		return o.Metadata["order_id"]
	}
	if o.OrderID != "" {
		return o.OrderID
	}
	return UnknownOrderID
}

// ReceivedAmount is the captured amount for a succeeded payment:
// amount_received with amount as the fallback.
func (o *PaymentObject) ReceivedAmount() int64 {
	if o.AmountReceived != 0 {
		return o.AmountReceived
	}
	return o.Amount
}

// RefundedAmount is the (positive) refunded amount: amount_refunded with
// amount as the fallback.
func (o *PaymentObject) RefundedAmount() int64 {
	amount := o.AmountRefunded
	if amount == 0 {
		amount = o.Amount
	}
	if amount < 0 {
		amount = -amount
	}
	return amount
}

// CurrencyOrDefault returns the object currency, defaulting when absent.
func (o *PaymentObject) CurrencyOrDefault() string {
	if o.Currency == "" {
		return DefaultCurrency
	}
	return o.Currency
}
