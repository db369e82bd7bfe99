package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bookcourier/server/internal/aws"
)

var (
	// ErrNotFound indicates the referenced order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStatusMismatch indicates a guarded status transition found the
	// order in a different state than expected.
	ErrStatusMismatch = errors.New("order status mismatch")
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// TableName returns the backing table, for callers that build cross-table
// transactions involving orders.
func (s *Store) TableName() string { return s.tableName }

// Create persists a new order as pending/unpaid. The order id must be set
// by the caller; a second create for the same id fails.
func (s *Store) Create(ctx context.Context, order Order) error {
	now := s.nowFunc()
	order.OrderStatus = StatusPending
	order.PaymentStatus = PaymentUnpaid
	order.CreatedAt = now
	order.UpdatedAt = now

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// Get fetches an order by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// SetOrderStatus overwrites the order status field. ErrNotFound if no such
// order exists.
func (s *Store) SetOrderStatus(ctx context.Context, orderID, newStatus string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET order_status = :new, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new": &types.AttributeValueMemberS{Value: newStatus},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrNotFound
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// Cancel sets the order status to cancelled.
func (s *Store) Cancel(ctx context.Context, orderID string) error {
	return s.SetOrderStatus(ctx, orderID, StatusCancelled)
}

// AdvanceStatus conditionally moves the order from expected to next.
// ErrStatusMismatch if the order is in any other state.
func (s *Store) AdvanceStatus(ctx context.Context, orderID, expected, next string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET order_status = :new, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: next},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":expected": &types.AttributeValueMemberS{Value: expected},
		},
		ConditionExpression: awsString("order_status = :expected"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("advance order status: %w", err)
	}
	return nil
}

// Delete removes the order. ErrNotFound if nothing was deleted.
func (s *Store) Delete(ctx context.Context, orderID string) error {
	out, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if len(out.Attributes) == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByCustomer returns the customer's orders, newest first. An empty
// email returns all orders.
func (s *Store) ListByCustomer(ctx context.Context, email string) ([]Order, error) {
	return s.list(ctx, "customer_email", email)
}

// ListByLibrarian returns orders for a librarian's listings, newest first.
// An empty email returns all orders.
func (s *Store) ListByLibrarian(ctx context.Context, email string) ([]Order, error) {
	return s.list(ctx, "librarian_email", email)
}

func (s *Store) list(ctx context.Context, field, value string) ([]Order, error) {
	input := &dyn.ScanInput{
		TableName: &s.tableName,
	}
	if value != "" {
		input.FilterExpression = awsString("#f = :v")
		input.ExpressionAttributeNames = map[string]string{"#f": field}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		}
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}

	result := make([]Order, 0, len(out.Items))
	for _, item := range out.Items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		result = append(result, o)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func awsString(s string) *string { return &s }
