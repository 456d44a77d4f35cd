package types

import (
	"fmt"

	"github.com/samber/lo"
)

// EventStatus represents the processing status of a staged webhook event
type EventStatus string

const (
	// EventStatusQueued means the event has been staged and handed to the queue
	EventStatusQueued EventStatus = "QUEUED"
	// EventStatusProcessed means the idempotency fence has been won exactly once
	EventStatusProcessed EventStatus = "PROCESSED"
)

func (s EventStatus) String() string {
	return string(s)
}

func (s EventStatus) Validate() error {
	allowed := []EventStatus{
		EventStatusQueued,
		EventStatusProcessed,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid event status: %s", s)
	}
	return nil
}

// PaymentStatus represents the status of a payment summary
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusSucceeded,
		PaymentStatusFailed,
		PaymentStatusRefunded,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid payment status: %s", s)
	}
	return nil
}
