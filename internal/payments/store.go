package payments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/bookcourier/server/internal/aws"
	"github.com/bookcourier/server/internal/orders"
)

// ErrDuplicateTransaction indicates a payment record already exists for the
// transaction id.
var ErrDuplicateTransaction = errors.New("payment already recorded for transaction")

// Store encapsulates operations on the payments table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new payments Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// GetByTransactionID fetches a payment by its transaction id. Returns
// (nil, nil) if not found.
func (s *Store) GetByTransactionID(ctx context.Context, txID string) (*Payment, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"transaction_id": &types.AttributeValueMemberS{Value: txID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Payment
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal payment: %w", err)
	}
	return &p, nil
}

// Insert writes a payment record, guarded by the transaction id not already
// existing. ErrDuplicateTransaction if it does.
func (s *Store) Insert(ctx context.Context, payment Payment) error {
	item, err := attributevalue.MarshalMap(payment)
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(transaction_id)"),
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("put payment: %w", err)
	}
	return nil
}

// RecordWithOrderPaid atomically inserts the payment record and marks the
// referenced order paid with its tracking id, in a single TransactWriteItems:
//   - Put payment, conditional on attribute_not_exists(transaction_id)
//   - Update order, setting payment_status and tracking_id
//
// ErrDuplicateTransaction if the transaction was canceled because the
// payment already exists (a concurrent reconciliation won the race).
func (s *Store) RecordWithOrderPaid(ctx context.Context, payment Payment, ordersTable string) error {
	item, err := attributevalue.MarshalMap(payment)
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}

	now := s.nowFunc()
	transactItems := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           &s.tableName,
				Item:                item,
				ConditionExpression: awsString("attribute_not_exists(transaction_id)"),
			},
		},
		{
			Update: &types.Update{
				TableName: &ordersTable,
				Key: map[string]types.AttributeValue{
					"order_id": &types.AttributeValueMemberS{Value: payment.OrderID},
				},
				UpdateExpression: awsString("SET payment_status = :paid, tracking_id = :tid, updated_at = :ua"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":paid": &types.AttributeValueMemberS{Value: orders.PaymentPaid},
					":tid":  &types.AttributeValueMemberS{Value: payment.TrackingID},
					":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
				},
				ConditionExpression: awsString("attribute_exists(order_id)"),
			},
		},
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			// the caller verifies the order before writing, so a canceled
			// transaction means the payment condition lost a race
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("transact write payment: %w", err)
	}
	return nil
}

// ListByCustomer returns payments sorted by paid-at descending, optionally
// filtered by customer email.
func (s *Store) ListByCustomer(ctx context.Context, email string) ([]Payment, error) {
	input := &dyn.ScanInput{
		TableName: &s.tableName,
	}
	if email != "" {
		input.FilterExpression = awsString("customer_email = :e")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		}
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan payments: %w", err)
	}

	result := make([]Payment, 0, len(out.Items))
	for _, item := range out.Items {
		var p Payment
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, fmt.Errorf("unmarshal payment: %w", err)
		}
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PaidAt.After(result[j].PaidAt)
	})
	return result, nil
}

func awsString(s string) *string { return &s }
