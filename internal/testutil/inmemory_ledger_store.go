package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/paygate/internal/domain/ledger"
	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/types"
)

// InMemoryLedgerStore implements ledger.Repository with the same
// conditional-write semantics as the DynamoDB implementation, so tests
// exercise the real fence behavior. It also counts writes so tests can
// assert that duplicates caused no extra mutations.
type InMemoryLedgerStore struct {
	mu sync.RWMutex

	events   map[string]*ledger.EventRecord
	payments map[string]*ledger.PaymentSummary
	orders   map[string]*ledger.OrderAggregate

	// Write counters for idempotency assertions
	PaymentUpserts int
	OrderAdds      int

	// FailNext makes the next conditional write fail with a database error,
	// simulating a transient store fault
	FailNext bool

	// FailNextPaymentUpsert fails only the next payment summary write, for
	// exercising the fence-won-but-reconciliation-failed path
	FailNextPaymentUpsert bool
}

// NewInMemoryLedgerStore creates a new in-memory ledger repository
func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		events:   make(map[string]*ledger.EventRecord),
		payments: make(map[string]*ledger.PaymentSummary),
		orders:   make(map[string]*ledger.OrderAggregate),
	}
}

// Clear resets all stored data
func (s *InMemoryLedgerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string]*ledger.EventRecord)
	s.payments = make(map[string]*ledger.PaymentSummary)
	s.orders = make(map[string]*ledger.OrderAggregate)
	s.PaymentUpserts = 0
	s.OrderAdds = 0
	s.FailNext = false
	s.FailNextPaymentUpsert = false
}

func (s *InMemoryLedgerStore) failNextLocked() error {
	if s.FailNext {
		s.FailNext = false
		return ierr.NewError("injected store failure").
			WithHint("Simulated transient store error").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryLedgerStore) StageEvent(ctx context.Context, record *ledger.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failNextLocked(); err != nil {
		return err
	}
	if _, ok := s.events[record.EventID]; ok {
		return ierr.NewError("event already staged").
			WithHintf("Event %s is already staged", record.EventID).
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *record
	s.events[record.EventID] = &copied
	return nil
}

func (s *InMemoryLedgerStore) MarkProcessed(ctx context.Context, eventID string, update ledger.ProcessedUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failNextLocked(); err != nil {
		return err
	}

	record, ok := s.events[eventID]
	if !ok {
		// Matches the DynamoDB upsert behavior: a missing record is
		// created by the fence write rather than failing the message.
		record = &ledger.EventRecord{EventID: eventID}
		s.events[eventID] = record
	}
	if record.ProcessedAt != nil {
		return ierr.NewError("event already processed").
			WithHintf("Event %s is already processed", eventID).
			Mark(ierr.ErrAlreadyExists)
	}

	processedAt := update.ProcessedAt
	record.Status = types.EventStatusProcessed
	record.TenantID = update.TenantID
	record.Type = update.Type
	record.CreatedAt = update.CreatedAt
	record.SchemaVersion = ledger.SchemaVersion
	record.ProcessedAt = &processedAt
	return nil
}

func (s *InMemoryLedgerStore) UpsertPaymentSummary(ctx context.Context, summary *ledger.PaymentSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failNextLocked(); err != nil {
		return err
	}
	if s.FailNextPaymentUpsert {
		s.FailNextPaymentUpsert = false
		return ierr.NewError("injected payment upsert failure").
			WithHint("Simulated transient store error").
			Mark(ierr.ErrDatabase)
	}

	copied := *summary
	s.payments[summary.PaymentID] = &copied
	s.PaymentUpserts++
	return nil
}

func (s *InMemoryLedgerStore) AddToOrderTotal(ctx context.Context, orderID string, deltaCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failNextLocked(); err != nil {
		return err
	}

	agg, ok := s.orders[orderID]
	if !ok {
		agg = &ledger.OrderAggregate{OrderID: orderID}
		s.orders[orderID] = agg
	}
	agg.AmountCents += deltaCents
	agg.LastUpdatedAt = time.Now().UTC()
	s.OrderAdds++
	return nil
}

func (s *InMemoryLedgerStore) GetEventRecord(ctx context.Context, eventID string) (*ledger.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.events[eventID]
	if !ok {
		return nil, ierr.NewError("record not found").
			WithHintf("No event record for %s", eventID).
			Mark(ierr.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

func (s *InMemoryLedgerStore) GetPaymentSummary(ctx context.Context, paymentID string) (*ledger.PaymentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.payments[paymentID]
	if !ok {
		return nil, ierr.NewError("record not found").
			WithHintf("No payment summary for %s", paymentID).
			Mark(ierr.ErrNotFound)
	}
	copied := *summary
	return &copied, nil
}

func (s *InMemoryLedgerStore) GetOrderAggregate(ctx context.Context, orderID string) (*ledger.OrderAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg, ok := s.orders[orderID]
	if !ok {
		return nil, ierr.NewError("record not found").
			WithHintf("No order aggregate for %s", orderID).
			Mark(ierr.ErrNotFound)
	}
	copied := *agg
	return &copied, nil
}

// EventCount returns the number of staged event records
func (s *InMemoryLedgerStore) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
