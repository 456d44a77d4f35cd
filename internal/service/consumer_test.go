package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flexprice/paygate/internal/domain/ledger"
	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/testutil"
	"github.com/flexprice/paygate/internal/types"
)

type ConsumerSuite struct {
	testutil.BaseServiceTestSuite
	consumer BatchConsumer
}

func TestConsumerSuite(t *testing.T) {
	suite.Run(t, new(ConsumerSuite))
}

func (s *ConsumerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := ServiceParams{
		Logger:     s.GetLogger(),
		Config:     s.GetConfig(),
		LedgerRepo: s.GetStore(),
		Publisher:  s.GetPublisher(),
	}
	s.consumer = NewBatchConsumer(params, NewReconciler(params))
}

func succeededPayload(eventID, intentID, orderID string, amount int64) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":"payment_intent.succeeded","created":1717243200,"data":{"object":{"id":%q,"amount":%d,"amount_received":%d,"currency":"usd","metadata":{"order_id":%q}}}}`,
		eventID, intentID, amount, amount, orderID,
	))
}

func refundedPayload(eventID, chargeID, intentID, orderID string, refunded int64) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":"charge.refunded","created":1717243200,"data":{"object":{"id":%q,"payment_intent":%q,"amount_refunded":%d,"currency":"usd","metadata":{"order_id":%q}}}}`,
		eventID, chargeID, intentID, refunded, orderID,
	))
}

func (s *ConsumerSuite) TestProcessMessageApplies() {
	msg := types.QueueMessage{
		ID:   "msg_1",
		Body: succeededPayload("evt_123", "pi_1", "order_42", 5000),
	}

	err := s.consumer.ProcessMessage(s.GetContext(), msg)
	s.NoError(err)

	record, err := s.GetStore().GetEventRecord(s.GetContext(), "evt_123")
	s.Require().NoError(err)
	s.Equal(types.EventStatusProcessed, record.Status)
	s.Equal(ledger.SchemaVersion, record.SchemaVersion)
	s.Require().NotNil(record.ProcessedAt)

	summary, err := s.GetStore().GetPaymentSummary(s.GetContext(), "pi_1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusSucceeded, summary.Status)
	s.Equal(int64(5000), summary.AmountCents)

	agg, err := s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.Require().NoError(err)
	s.Equal(int64(5000), agg.AmountCents)
}

func (s *ConsumerSuite) TestRedeliveryIsSilentSuccess() {
	msg := types.QueueMessage{
		ID:   "msg_1",
		Body: succeededPayload("evt_123", "pi_1", "order_42", 5000),
	}

	s.NoError(s.consumer.ProcessMessage(s.GetContext(), msg))
	s.NoError(s.consumer.ProcessMessage(s.GetContext(), msg))

	// The fence absorbed the redelivery: no extra writes happened
	s.Equal(1, s.GetStore().PaymentUpserts)
	s.Equal(1, s.GetStore().OrderAdds)

	agg, err := s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.Require().NoError(err)
	s.Equal(int64(5000), agg.AmountCents)
}

func (s *ConsumerSuite) TestConsumeReturnsOnlyFailedIDs() {
	batch := []types.QueueMessage{
		{ID: "msg_1", Body: succeededPayload("evt_1", "pi_1", "order_42", 5000)},
		{ID: "msg_2", Body: []byte(`not json`)},
		{ID: "msg_3", Body: refundedPayload("evt_3", "ch_1", "pi_1", "order_42", 2000)},
	}

	failed := s.consumer.Consume(s.GetContext(), batch)
	s.Equal([]string{"msg_2"}, failed)

	// The healthy messages still landed
	agg, err := s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.Require().NoError(err)
	s.Equal(int64(3000), agg.AmountCents)
}

func (s *ConsumerSuite) TestConsumeEmptyBatch() {
	s.Empty(s.consumer.Consume(s.GetContext(), nil))
}

func (s *ConsumerSuite) TestMissingEventIDFails() {
	msg := types.QueueMessage{
		ID:   "msg_1",
		Body: []byte(`{"type":"payment_intent.succeeded"}`),
	}

	err := s.consumer.ProcessMessage(s.GetContext(), msg)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ConsumerSuite) TestOrderTotalCommutesAcrossDeliveries() {
	succeeded := types.QueueMessage{ID: "msg_1", Body: succeededPayload("evt_1", "pi_1", "order_42", 5000)}
	refunded := types.QueueMessage{ID: "msg_2", Body: refundedPayload("evt_2", "ch_1", "pi_1", "order_42", 2000)}

	s.NoError(s.consumer.ProcessMessage(s.GetContext(), refunded))
	s.NoError(s.consumer.ProcessMessage(s.GetContext(), succeeded))

	agg, err := s.GetStore().GetOrderAggregate(s.GetContext(), "order_42")
	s.Require().NoError(err)
	s.Equal(int64(3000), agg.AmountCents)
}

func (s *ConsumerSuite) TestTransientStoreErrorFailsMessage() {
	msg := types.QueueMessage{
		ID:   "msg_1",
		Body: succeededPayload("evt_123", "pi_1", "order_42", 5000),
	}

	s.GetStore().FailNext = true
	failed := s.consumer.Consume(s.GetContext(), []types.QueueMessage{msg})
	s.Equal([]string{"msg_1"}, failed)

	// The fence was never written, so redelivery applies cleanly
	failed = s.consumer.Consume(s.GetContext(), []types.QueueMessage{msg})
	s.Empty(failed)
	s.Equal(1, s.GetStore().PaymentUpserts)
}

func (s *ConsumerSuite) TestReconcileFailureAfterFence() {
	msg := types.QueueMessage{
		ID:   "msg_1",
		Body: succeededPayload("evt_123", "pi_1", "order_42", 5000),
	}

	s.GetStore().FailNextPaymentUpsert = true
	err := s.consumer.ProcessMessage(s.GetContext(), msg)
	s.Error(err)

	// The fence won before reconciliation failed: the event stays marked
	// processed, and a redelivery is absorbed without applying effects.
	record, err := s.GetStore().GetEventRecord(s.GetContext(), "evt_123")
	s.Require().NoError(err)
	s.NotNil(record.ProcessedAt)

	s.NoError(s.consumer.ProcessMessage(s.GetContext(), msg))
	s.Equal(0, s.GetStore().PaymentUpserts)
	_, err = s.GetStore().GetPaymentSummary(s.GetContext(), "pi_1")
	s.True(ierr.IsNotFound(err))
}

func (s *ConsumerSuite) TestUnhandledTypeIsProcessed() {
	msg := types.QueueMessage{
		ID:   "msg_1",
		Body: []byte(`{"id":"evt_9","type":"customer.created","data":{"object":{"id":"cus_1"}}}`),
	}

	s.NoError(s.consumer.ProcessMessage(s.GetContext(), msg))

	record, err := s.GetStore().GetEventRecord(s.GetContext(), "evt_9")
	s.Require().NoError(err)
	s.NotNil(record.ProcessedAt)
	s.Equal(0, s.GetStore().PaymentUpserts)
}

func (s *ConsumerSuite) TestFenceCreatesRecordWhenStagingLost() {
	// The fence write upserts: an event whose staging record never landed
	// is still processed and recorded.
	body := succeededPayload("evt_lost", "pi_9", "order_9", 100)
	s.NoError(s.consumer.ProcessMessage(s.GetContext(), types.QueueMessage{ID: "msg_1", Body: body}))

	record, err := s.GetStore().GetEventRecord(s.GetContext(), "evt_lost")
	s.Require().NoError(err)
	s.NotNil(record.ProcessedAt)
	s.Equal("payment_intent.succeeded", record.Type)
}
