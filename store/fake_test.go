package store

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is a scripted Client. Each hook is optional; unset hooks return
// empty outputs. Every input is recorded.
type fakeClient struct {
	getItem       func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	scan          func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	updateItem    func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	transactWrite func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error)
	describeTable func(*dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error)
	createTable   func(*dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error)
	gets          []*dynamodb.GetItemInput
	scans         []*dynamodb.ScanInput
	updates       []*dynamodb.UpdateItemInput
	transacts     []*dynamodb.TransactWriteItemsInput
	createdTables []*dynamodb.CreateTableInput
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets = append(f.gets, in)
	if f.getItem == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getItem(in)
}

func (f *fakeClient) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans = append(f.scans, in)
	if f.scan == nil {
		return &dynamodb.ScanOutput{}, nil
	}
	return f.scan(in)
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.updateItem == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.updateItem(in)
}

func (f *fakeClient) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transacts = append(f.transacts, in)
	if f.transactWrite == nil {
		return &dynamodb.TransactWriteItemsOutput{}, nil
	}
	return f.transactWrite(in)
}

func (f *fakeClient) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeTable == nil {
		return activeTable(in), nil
	}
	return f.describeTable(in)
}

func (f *fakeClient) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.createdTables = append(f.createdTables, in)
	if f.createTable == nil {
		return &dynamodb.CreateTableOutput{}, nil
	}
	return f.createTable(in)
}

func activeTable(in *dynamodb.DescribeTableInput) *dynamodb.DescribeTableOutput {
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   in.TableName,
			TableStatus: types.TableStatusActive,
		},
	}
}

// newTestStore returns a Store on client with a fixed clock.
func newTestStore(client *fakeClient) *Store {
	s := New(client, DefaultConfig())
	s.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func mustMarshal(t *testing.T, rec itemRecord) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return av
}

// storedItem returns a GetItem hook serving rec from the items table and
// nothing from the constraint table.
func storedItem(t *testing.T, rec itemRecord) func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
	av := mustMarshal(t, rec)
	return func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		if aws.ToString(in.TableName) == DefaultConfig().ItemsTable {
			return &dynamodb.GetItemOutput{Item: av}, nil
		}
		return &dynamodb.GetItemOutput{}, nil
	}
}

// cancelled builds a TransactionCanceledException failing the item at index.
func cancelled(size, index int) error {
	reasons := make([]types.CancellationReason, size)
	for i := range reasons {
		reasons[i].Code = aws.String("None")
	}
	reasons[index].Code = aws.String("ConditionalCheckFailed")
	return &types.TransactionCanceledException{
		Message:             aws.String("Transaction cancelled"),
		CancellationReasons: reasons,
	}
}
