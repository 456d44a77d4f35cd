package dynamodb

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/domain/ledger"
	"github.com/flexprice/paygate/internal/dynamodb"
	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/types"
)

// LedgerRepository implements ledger.Repository on one DynamoDB table.
// All correctness-bearing writes are conditional or atomic single-item
// operations; the repository never takes in-process locks.
type LedgerRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logger.Logger
}

func NewLedgerRepository(client *dynamodb.Client, cfg *config.Configuration, logger *logger.Logger) ledger.Repository {
	return &LedgerRepository{
		client:    client,
		tableName: cfg.DynamoDB.TableName,
		logger:    logger,
	}
}

type eventItem struct {
	PK            string     `dynamodbav:"pk"`
	EventID       string     `dynamodbav:"event_id"`
	TenantID      string     `dynamodbav:"tenant_id"`
	EventType     string     `dynamodbav:"event_type"`
	Status        string     `dynamodbav:"status"`
	SchemaVersion int        `dynamodbav:"schema_version"`
	CreatedAt     time.Time  `dynamodbav:"created_at"`
	ProcessedAt   *time.Time `dynamodbav:"processed_at,omitempty"`
}

type paymentItem struct {
	PK            string    `dynamodbav:"pk"`
	PaymentID     string    `dynamodbav:"payment_id"`
	OrderID       string    `dynamodbav:"order_id"`
	Status        string    `dynamodbav:"status"`
	AmountCents   int64     `dynamodbav:"amount_cents"`
	Currency      string    `dynamodbav:"currency"`
	LastUpdatedAt time.Time `dynamodbav:"last_updated_at"`
}

type orderItem struct {
	PK            string    `dynamodbav:"pk"`
	OrderID       string    `dynamodbav:"order_id"`
	AmountCents   int64     `dynamodbav:"amount_cents"`
	LastUpdatedAt time.Time `dynamodbav:"last_updated_at"`
}

// StageEvent conditionally creates the event record. attribute_not_exists
// on the key makes the create itself idempotent: the gateway can be
// invoked any number of times for one event and at most one record exists.
func (r *LedgerRepository) StageEvent(ctx context.Context, record *ledger.EventRecord) error {
	item, err := attributevalue.MarshalMap(&eventItem{
		PK:            ledger.EventKey(record.EventID),
		EventID:       record.EventID,
		TenantID:      record.TenantID,
		EventType:     record.Type,
		Status:        record.Status.String(),
		SchemaVersion: record.SchemaVersion,
		CreatedAt:     record.CreatedAt,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal event record").
			Mark(ierr.ErrValidation)
	}

	_, err = r.client.DB().PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ierr.WithError(err).
				WithHintf("Event %s is already staged", record.EventID).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to stage event record").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// MarkProcessed wins or loses the idempotency fence. The only condition is
// the absence of processed_at: a queue message whose staged record was
// lost still gets a record created here, which keeps redelivery safe.
func (r *LedgerRepository) MarkProcessed(ctx context.Context, eventID string, update ledger.ProcessedUpdate) error {
	_, err := r.client.DB().UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"pk": &ddbtypes.AttributeValueMemberS{Value: ledger.EventKey(eventID)},
		},
		UpdateExpression: aws.String(
			"SET #status = :status, processed_at = :processed_at, event_id = :event_id, " +
				"event_type = :event_type, tenant_id = :tenant_id, created_at = :created_at, " +
				"schema_version = :schema_version",
		),
		ConditionExpression: aws.String("attribute_not_exists(processed_at)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":status":         &ddbtypes.AttributeValueMemberS{Value: types.EventStatusProcessed.String()},
			":processed_at":   mustMarshalTime(update.ProcessedAt),
			":event_id":       &ddbtypes.AttributeValueMemberS{Value: eventID},
			":event_type":     &ddbtypes.AttributeValueMemberS{Value: update.Type},
			":tenant_id":      &ddbtypes.AttributeValueMemberS{Value: update.TenantID},
			":created_at":     mustMarshalTime(update.CreatedAt),
			":schema_version": &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(ledger.SchemaVersion)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ierr.WithError(err).
				WithHintf("Event %s is already processed", eventID).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to mark event processed").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// UpsertPaymentSummary is a plain overwrite. Last writer wins per payment
// id; races between distinct events for the same payment are acceptable
// because each event's write happens at most once behind the fence.
func (r *LedgerRepository) UpsertPaymentSummary(ctx context.Context, summary *ledger.PaymentSummary) error {
	item, err := attributevalue.MarshalMap(&paymentItem{
		PK:            ledger.PaymentKey(summary.PaymentID),
		PaymentID:     summary.PaymentID,
		OrderID:       summary.OrderID,
		Status:        summary.Status.String(),
		AmountCents:   summary.AmountCents,
		Currency:      summary.Currency,
		LastUpdatedAt: summary.LastUpdatedAt,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal payment summary").
			Mark(ierr.ErrValidation)
	}

	_, err = r.client.DB().PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to upsert payment summary").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// AddToOrderTotal bumps the running total with an ADD expression. ADD is
// commutative at the store, so concurrent deltas for one order apply
// correctly in any delivery order.
func (r *LedgerRepository) AddToOrderTotal(ctx context.Context, orderID string, deltaCents int64) error {
	_, err := r.client.DB().UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"pk": &ddbtypes.AttributeValueMemberS{Value: ledger.OrderKey(orderID)},
		},
		UpdateExpression: aws.String("ADD amount_cents :delta SET order_id = :order_id, last_updated_at = :now"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":delta":    &ddbtypes.AttributeValueMemberN{Value: formatInt(deltaCents)},
			":order_id": &ddbtypes.AttributeValueMemberS{Value: orderID},
			":now":      mustMarshalTime(time.Now().UTC()),
		},
	})
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to adjust total for order %s", orderID).
			Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *LedgerRepository) GetEventRecord(ctx context.Context, eventID string) (*ledger.EventRecord, error) {
	var item eventItem
	if err := r.getItem(ctx, ledger.EventKey(eventID), &item); err != nil {
		return nil, err
	}
	return &ledger.EventRecord{
		EventID:       item.EventID,
		TenantID:      item.TenantID,
		Type:          item.EventType,
		Status:        types.EventStatus(item.Status),
		SchemaVersion: item.SchemaVersion,
		CreatedAt:     item.CreatedAt,
		ProcessedAt:   item.ProcessedAt,
	}, nil
}

func (r *LedgerRepository) GetPaymentSummary(ctx context.Context, paymentID string) (*ledger.PaymentSummary, error) {
	var item paymentItem
	if err := r.getItem(ctx, ledger.PaymentKey(paymentID), &item); err != nil {
		return nil, err
	}
	return &ledger.PaymentSummary{
		PaymentID:     item.PaymentID,
		OrderID:       item.OrderID,
		Status:        types.PaymentStatus(item.Status),
		AmountCents:   item.AmountCents,
		Currency:      item.Currency,
		LastUpdatedAt: item.LastUpdatedAt,
	}, nil
}

func (r *LedgerRepository) GetOrderAggregate(ctx context.Context, orderID string) (*ledger.OrderAggregate, error) {
	var item orderItem
	if err := r.getItem(ctx, ledger.OrderKey(orderID), &item); err != nil {
		return nil, err
	}
	return &ledger.OrderAggregate{
		OrderID:       item.OrderID,
		AmountCents:   item.AmountCents,
		LastUpdatedAt: item.LastUpdatedAt,
	}, nil
}

func (r *LedgerRepository) getItem(ctx context.Context, pk string, out any) error {
	resp, err := r.client.DB().GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"pk": &ddbtypes.AttributeValueMemberS{Value: pk},
		},
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read ledger record").
			Mark(ierr.ErrDatabase)
	}
	if len(resp.Item) == 0 {
		return ierr.NewError("record not found").
			WithHintf("No ledger record for key %s", pk).
			Mark(ierr.ErrNotFound)
	}
	if err := attributevalue.UnmarshalMap(resp.Item, out); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to unmarshal ledger record").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var conditionFailed *ddbtypes.ConditionalCheckFailedException
	return ierr.As(err, &conditionFailed)
}

func mustMarshalTime(t time.Time) ddbtypes.AttributeValue {
	return &ddbtypes.AttributeValueMemberS{Value: t.UTC().Format(time.RFC3339Nano)}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
