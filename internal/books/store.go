package books

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

// ErrNotFound indicates the referenced book does not exist.
var ErrNotFound = errors.New("book not found")

// latestCount is how many books the latest-books listing returns.
const latestCount = 6

// Store encapsulates operations on the books table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new books Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new book listing.
func (s *Store) Create(ctx context.Context, book Book) error {
	book.CreatedAt = s.nowFunc()

	item, err := attributevalue.MarshalMap(book)
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(book_id)"),
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("put book: %w", err)
	}
	return nil
}

// Get fetches a book by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, bookID string) (*Book, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"book_id": &types.AttributeValueMemberS{Value: bookID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var b Book
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, fmt.Errorf("unmarshal book: %w", err)
	}
	return &b, nil
}

// Update applies a partial field merge to an existing book.
// ErrNotFound if no such book exists.
func (s *Store) Update(ctx context.Context, bookID string, patch map[string]interface{}) error {
	if len(patch) == 0 {
		return nil
	}

	expr := "SET"
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	i := 0
	for field, val := range patch {
		av, err := attributevalue.Marshal(val)
		if err != nil {
			return fmt.Errorf("marshal patch field %s: %w", field, err)
		}
		n := fmt.Sprintf("#f%d", i)
		v := fmt.Sprintf(":v%d", i)
		if i > 0 {
			expr += ","
		}
		expr += fmt.Sprintf(" %s = %s", n, v)
		names[n] = field
		values[v] = av
		i++
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"book_id": &types.AttributeValueMemberS{Value: bookID},
		},
		UpdateExpression:          &expr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("attribute_exists(book_id)"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrNotFound
		}
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// Latest returns the newest published books, capped at six.
func (s *Store) Latest(ctx context.Context) ([]Book, error) {
	published, err := s.scanPublished(ctx)
	if err != nil {
		return nil, err
	}
	if len(published) > latestCount {
		published = published[:latestCount]
	}
	return published, nil
}

// ListPublished returns a page of published books plus the total count of
// published listings.
func (s *Store) ListPublished(ctx context.Context, limit, skip int) ([]Book, int, error) {
	published, err := s.scanPublished(ctx)
	if err != nil {
		return nil, 0, err
	}

	total := len(published)
	if skip < 0 {
		skip = 0
	}
	if skip > total {
		skip = total
	}
	page := published[skip:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	return page, total, nil
}

// ListByLibrarian returns a librarian's listings regardless of status.
// An empty email returns everything.
func (s *Store) ListByLibrarian(ctx context.Context, email string) ([]Book, error) {
	input := &dyn.ScanInput{
		TableName: &s.tableName,
	}
	if email != "" {
		input.FilterExpression = awsString("librarian_email = :e")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		}
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan books: %w", err)
	}
	return unmarshalBooks(out.Items)
}

func (s *Store) scanPublished(ctx context.Context) ([]Book, error) {
	input := &dyn.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: awsString("book_status = :st"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":st": &types.AttributeValueMemberS{Value: StatusPublished},
		},
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan books: %w", err)
	}

	result, err := unmarshalBooks(out.Items)
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func unmarshalBooks(items []map[string]types.AttributeValue) ([]Book, error) {
	result := make([]Book, 0, len(items))
	for _, item := range items {
		var b Book
		if err := attributevalue.UnmarshalMap(item, &b); err != nil {
			return nil, fmt.Errorf("unmarshal book: %w", err)
		}
		result = append(result, b)
	}
	return result, nil
}

func awsString(s string) *string { return &s }
