package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flexprice/paygate/internal/domain/events"
	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/testutil"
	"github.com/flexprice/paygate/internal/types"
)

type ReconcilerSuite struct {
	testutil.BaseServiceTestSuite
	reconciler Reconciler
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.reconciler = NewReconciler(ServiceParams{
		Logger:     s.GetLogger(),
		Config:     s.GetConfig(),
		LedgerRepo: s.GetStore(),
		Publisher:  s.GetPublisher(),
	})
}

func (s *ReconcilerSuite) newEvent(eventType string, object map[string]any) *events.InboundEvent {
	raw, err := json.Marshal(object)
	s.Require().NoError(err)

	event := &events.InboundEvent{
		ID:   "evt_1",
		Type: eventType,
	}
	event.Data.Object = raw
	return event
}

func (s *ReconcilerSuite) TestPaymentSucceeded() {
	event := s.newEvent(events.EventTypePaymentSucceeded, map[string]any{
		"id":              "pi_1",
		"amount":          5000,
		"amount_received": 5000,
		"currency":        "usd",
		"metadata":        map[string]string{"order_id": "order_42"},
	})

	err := s.reconciler.Apply(s.GetContext(), event)
	s.NoError(err)

	summary, err := s.GetStore().GetPaymentSummary(s.GetContext(), "pi_1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusSucceeded, summary.Status)
	s.Equal(int64(5000), summary.AmountCents)
	s.Equal("order_42", summary.OrderID)
	s.Equal("usd", summary.Currency)

	agg, err := s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.Require().NoError(err)
	s.Equal(int64(5000), agg.AmountCents)
}

func (s *ReconcilerSuite) TestPaymentSucceededAmountFallback() {
	event := s.newEvent(events.EventTypePaymentSucceeded, map[string]any{
		"id":       "pi_1",
		"amount":   5000,
		"order_id": "order_42",
	})

	err := s.reconciler.Apply(s.GetContext(), event)
	s.NoError(err)

	summary, err := s.GetStore().GetPaymentSummary(s.GetContext(), "pi_1")
	s.Require().NoError(err)
	s.Equal(int64(5000), summary.AmountCents)
}

func (s *ReconcilerSuite) TestPaymentFailed() {
	event := s.newEvent(events.EventTypePaymentFailed, map[string]any{
		"id":       "pi_1",
		"amount":   5000,
		"order_id": "order_42",
	})

	err := s.reconciler.Apply(s.GetContext(), event)
	s.NoError(err)

	summary, err := s.GetStore().GetPaymentSummary(s.GetContext(), "pi_1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusFailed, summary.Status)
	s.Equal(int64(0), summary.AmountCents)

	// A failed payment contributes nothing to the order total
	s.Equal(0, s.GetStore().OrderAdds)
	_, err = s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.True(ierr.IsNotFound(err))
}

func (s *ReconcilerSuite) TestChargeRefunded() {
	event := s.newEvent(events.EventTypeChargeRefunded, map[string]any{
		"id":              "ch_1",
		"payment_intent":  "pi_1",
		"amount":          5000,
		"amount_refunded": 2000,
		"currency":        "usd",
		"metadata":        map[string]string{"order_id": "order_42"},
	})

	err := s.reconciler.Apply(s.GetContext(), event)
	s.NoError(err)

	// The summary keys by the intent id, not the charge id
	summary, err := s.GetStore().GetPaymentSummary(s.GetContext(), "pi_1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusRefunded, summary.Status)
	s.Equal(int64(-2000), summary.AmountCents)

	agg, err := s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.Require().NoError(err)
	s.Equal(int64(-2000), agg.AmountCents)
}

func (s *ReconcilerSuite) TestOrderTotalCommutes() {
	succeeded := s.newEvent(events.EventTypePaymentSucceeded, map[string]any{
		"id":       "pi_1",
		"amount":   5000,
		"order_id": "order_42",
	})
	refunded := s.newEvent(events.EventTypeChargeRefunded, map[string]any{
		"id":              "ch_1",
		"payment_intent":  "pi_1",
		"amount_refunded": 2000,
		"order_id":        "order_42",
	})

	// Apply in one order
	s.NoError(s.reconciler.Apply(s.GetContext(), succeeded))
	s.NoError(s.reconciler.Apply(s.GetContext(), refunded))
	agg, err := s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.Require().NoError(err)
	s.Equal(int64(3000), agg.AmountCents)

	// Reset and apply in the other order; the total must agree
	s.GetStore().Clear()
	s.NoError(s.reconciler.Apply(s.GetContext(), refunded))
	s.NoError(s.reconciler.Apply(s.GetContext(), succeeded))
	agg, err = s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.Require().NoError(err)
	s.Equal(int64(3000), agg.AmountCents)
}

func (s *ReconcilerSuite) TestUnknownOrderSentinel() {
	event := s.newEvent(events.EventTypePaymentSucceeded, map[string]any{
		"id":     "pi_1",
		"amount": 5000,
	})

	err := s.reconciler.Apply(s.GetContext(), event)
	s.NoError(err)

	summary, err := s.GetStore().GetPaymentSummary(s.GetContext(), "pi_1")
	s.Require().NoError(err)
	s.Equal(events.UnknownOrderID, summary.OrderID)

	agg, err := s.GetStore().GetOrderAggregate(s.GetContext(), events.UnknownOrderID)
	s.Require().NoError(err)
	s.Equal(int64(5000), agg.AmountCents)
}

func (s *ReconcilerSuite) TestUnhandledTypeIsNoOp() {
	event := s.newEvent("customer.created", map[string]any{
		"id": "cus_1",
	})

	err := s.reconciler.Apply(s.GetContext(), event)
	s.NoError(err)
	s.Equal(0, s.GetStore().PaymentUpserts)
	s.Equal(0, s.GetStore().OrderAdds)
}

func (s *ReconcilerSuite) TestSummaryLastWriterWins() {
	first := s.newEvent(events.EventTypePaymentSucceeded, map[string]any{
		"id":       "pi_1",
		"amount":   5000,
		"order_id": "order_42",
	})
	second := s.newEvent(events.EventTypeChargeRefunded, map[string]any{
		"id":              "ch_1",
		"payment_intent":  "pi_1",
		"amount_refunded": 5000,
		"order_id":        "order_42",
	})

	s.NoError(s.reconciler.Apply(s.GetContext(), first))
	s.NoError(s.reconciler.Apply(s.GetContext(), second))

	summary, err := s.GetStore().GetPaymentSummary(s.GetContext(), "pi_1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusRefunded, summary.Status)
	s.Equal(int64(-5000), summary.AmountCents)
	s.Equal(2, s.GetStore().PaymentUpserts)
}

func (s *ReconcilerSuite) TestStoreFailurePropagates() {
	event := s.newEvent(events.EventTypePaymentSucceeded, map[string]any{
		"id":     "pi_1",
		"amount": 5000,
	})

	s.GetStore().FailNextPaymentUpsert = true
	err := s.reconciler.Apply(s.GetContext(), event)
	s.Error(err)
	s.True(ierr.IsDatabase(err))
	s.Equal(0, s.GetStore().OrderAdds)
}
