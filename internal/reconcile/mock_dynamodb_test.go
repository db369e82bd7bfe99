package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory stand-in supporting the calls the flow issues.
// It stores items per table: table -> pkValue -> item map.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	// preTransact, when set, runs before TransactWriteItems evaluates its
	// conditions; used to simulate a concurrent writer winning the race.
	preTransact func(m *mockDynamo)
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

// transaction_id must come first: payment items carry an order_id attribute
// too, and keying them by it would bypass the attribute_not_exists guard.
var pkCandidates = []string{"transaction_id", "order_id", "email", "book_id"}

func pkOf(attrs map[string]types.AttributeValue) (string, string, error) {
	for _, name := range pkCandidates {
		if v, ok := attrs[name]; ok {
			return name, v.(*types.AttributeValueMemberS).Value, nil
		}
	}
	return "", "", errors.New("no primary key attribute")
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)

	name, pk, err := pkOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists("+name+")" {
		if _, exists := m.tables[table][pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.tables[table][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)

	_, pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

// applyUpdateValues maps the expression values the stores use onto fields.
func applyUpdateValues(item map[string]types.AttributeValue, values map[string]types.AttributeValue) {
	if v, ok := values[":new"]; ok {
		item["order_status"] = v
	}
	if v, ok := values[":paid"]; ok {
		item["payment_status"] = v
	}
	if v, ok := values[":tid"]; ok {
		item["tracking_id"] = v
	}
	if v, ok := values[":ua"]; ok {
		item["updated_at"] = v
	}
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)

	name, pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.tables[table][pk]

	if params.ConditionExpression != nil {
		cond := *params.ConditionExpression
		switch {
		case cond == "attribute_exists("+name+")":
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case cond == "order_status = :expected":
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
			curr, ok := item["order_status"].(*types.AttributeValueMemberS)
			expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
			if !ok || curr.Value != expected.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	if !exists {
		return nil, errors.New("item not found")
	}

	applyUpdateValues(item, params.ExpressionAttributeValues)
	m.tables[table][pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)

	_, pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.DeleteItemOutput{}, nil
	}
	delete(m.tables[table], pk)
	return &dyn.DeleteItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)

	var field, want string
	if params.FilterExpression != nil {
		// filters in this codebase are all "field = :value"
		parts := strings.SplitN(*params.FilterExpression, " = ", 2)
		field = parts[0]
		if resolved, ok := params.ExpressionAttributeNames[field]; ok {
			field = resolved
		}
		want = params.ExpressionAttributeValues[parts[1]].(*types.AttributeValueMemberS).Value
	}

	out := &dyn.ScanOutput{}
	for _, item := range m.tables[table] {
		if field != "" {
			v, ok := item[field].(*types.AttributeValueMemberS)
			if !ok || v.Value != want {
				continue
			}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	if m.preTransact != nil {
		hook := m.preTransact
		m.preTransact = nil
		m.mu.Unlock()
		hook(m)
		m.mu.Lock()
	}
	defer m.mu.Unlock()

	// first pass: evaluate all conditions
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			table := *p.TableName
			m.ensureTable(table)
			name, pk, err := pkOf(p.Item)
			if err != nil {
				return nil, err
			}
			if p.ConditionExpression != nil && *p.ConditionExpression == "attribute_not_exists("+name+")" {
				if _, exists := m.tables[table][pk]; exists {
					return nil, &types.TransactionCanceledException{}
				}
			}
		}
		if u := it.Update; u != nil {
			table := *u.TableName
			m.ensureTable(table)
			name, pk, err := pkOf(u.Key)
			if err != nil {
				return nil, err
			}
			if u.ConditionExpression != nil && *u.ConditionExpression == "attribute_exists("+name+")" {
				if _, exists := m.tables[table][pk]; !exists {
					return nil, &types.TransactionCanceledException{}
				}
			}
		}
	}

	// second pass: apply
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			table := *p.TableName
			_, pk, _ := pkOf(p.Item)
			m.tables[table][pk] = p.Item
		}
		if u := it.Update; u != nil {
			table := *u.TableName
			_, pk, _ := pkOf(u.Key)
			item := m.tables[table][pk]
			applyUpdateValues(item, u.ExpressionAttributeValues)
			m.tables[table][pk] = item
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
