package events

import (
	"encoding/json"
	"time"

	"github.com/flexprice/paygate/internal/types"
)

// InboundEvent is the provider's webhook envelope. The payload is untrusted
// until the signature check has passed; every field may be absent or of the
// wrong shape, so parsing never fails the request on its own.
type InboundEvent struct {
	// Provider-assigned, globally unique event identifier
	ID string `json:"id"`

	// Provider event type tag, ex payment_intent.succeeded
	Type string `json:"type"`

	// Unix seconds the provider created the event
	Created int64 `json:"created"`

	// Account identifies the tenant on the provider side
	Account string `json:"account"`

	// Data carries the event-type-specific object, kept raw so that the
	// reconciler decides how to type it
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseInbound decodes a raw webhook payload. Malformed bodies yield an
// empty event and the parse error; callers choose whether that is fatal
// (consumer) or tolerated with synthesized identifiers (gateway).
func ParseInbound(payload []byte) (*InboundEvent, error) {
	var event InboundEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return &InboundEvent{}, err
	}
	return &event, nil
}

// TenantID returns the event's account, falling back to the sentinel
// tenant for events that carry none.
func (e *InboundEvent) TenantID() string {
	if e.Account == "" {
		return types.DefaultTenantID
	}
	return e.Account
}

// CreatedAt returns the provider timestamp, or now when absent.
func (e *InboundEvent) CreatedAt(now time.Time) time.Time {
	if e.Created <= 0 {
		return now
	}
	return time.Unix(e.Created, 0).UTC()
}

// Kind maps the open-ended provider type space onto the closed set of
// variants this pipeline reconciles.
func (e *InboundEvent) Kind() EventKind {
	switch e.Type {
	case EventTypePaymentSucceeded:
		return KindPaymentSucceeded
	case EventTypePaymentFailed:
		return KindPaymentFailed
	case EventTypeChargeRefunded:
		return KindChargeRefunded
	default:
		return KindUnhandled
	}
}

// PaymentObject decodes data.object into its typed payment view. Missing
// fields stay at their zero values; a decode error means the object was
// not a JSON object at all.
func (e *InboundEvent) PaymentObject() (*PaymentObject, error) {
	obj := &PaymentObject{}
	if len(e.Data.Object) == 0 {
		return obj, nil
	}
	if err := json.Unmarshal(e.Data.Object, obj); err != nil {
		return &PaymentObject{}, err
	}
	return obj, nil
}
