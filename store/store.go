package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/chips-catalog/catalog"
	"github.com/jacentio/chips-catalog/internal/keys"
)

// maxDeleteAttempts bounds how often Delete re-reads an item that changed
// between its read and the delete transaction.
const maxDeleteAttempts = 3

// Client is the subset of the DynamoDB API used by the Store.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Store provides DynamoDB operations for catalog items.
type Store struct {
	client Client
	config Config
	now    func() time.Time
}

var _ catalog.Repository = (*Store)(nil)

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.config
}

// FindByID retrieves an item with a strongly consistent read, returning
// ErrNotFound if it is missing.
func (s *Store) FindByID(ctx context.Context, id string) (*catalog.Item, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	item := rec.item()
	return &item, nil
}

func (s *Store) get(ctx context.Context, id string) (*itemRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.ItemsTable),
		Key:            itemKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var rec itemRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item %s: %w", id, err)
	}
	return &rec, nil
}

// Find scans the items table for items matching q and returns them ordered
// by name.
func (s *Store) Find(ctx context.Context, q catalog.Query) ([]catalog.Item, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(s.config.ItemsTable),
		ConsistentRead: aws.Bool(true),
	}
	if f := buildFilter(q); f.expr != "" {
		input.FilterExpression = aws.String(f.expr)
		input.ExpressionAttributeNames = f.names
		input.ExpressionAttributeValues = f.values
	}

	var records []itemRecord
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan items: %w", err)
		}
		var pageRecords []itemRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageRecords); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
		records = append(records, pageRecords...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	items := make([]catalog.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.item())
	}
	return items, nil
}

// FindIDByName returns the identifier of the item owning name, read from the
// unique constraint table.
func (s *Store) FindIDByName(ctx context.Context, name string) (string, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.UniqueTable),
		Key:            constraintKey(name),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("get name constraint: %w", err)
	}
	if result.Item == nil {
		return "", false, nil
	}
	v, ok := result.Item[attrItemID].(*types.AttributeValueMemberS)
	if !ok {
		return "", false, fmt.Errorf("name constraint %q has no %s", name, attrItemID)
	}
	return v.Value, true, nil
}

// Insert creates a new item at version 0 together with its name constraint.
// A generated identifier is used unless item.ID is set; a generated
// identifier that collides with an existing item is replaced by a fresh one.
func (s *Store) Insert(ctx context.Context, item catalog.Item) (catalog.Item, error) {
	fixedID := item.ID != ""
	for attempt := 1; ; attempt++ {
		id := item.ID
		if !fixedID {
			var err error
			if id, err = keys.NewID(); err != nil {
				return catalog.Item{}, err
			}
		}

		rec, err := s.insert(ctx, id, item)
		if errors.Is(err, ErrAlreadyExists) && !fixedID && attempt < s.config.MaxIDAttempts {
			continue
		}
		if err != nil {
			return catalog.Item{}, err
		}
		return rec.item(), nil
	}
}

func (s *Store) insert(ctx context.Context, id string, item catalog.Item) (itemRecord, error) {
	now := s.now().UTC().Format(time.RFC3339)
	rec := newRecord(id, item)
	rec.Version = 0
	rec.CreatedAt = now
	rec.UpdatedAt = now

	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return itemRecord{}, fmt.Errorf("marshal item: %w", err)
	}

	// Track item indices for error mapping
	const (
		constraintPutIndex = 0
		itemPutIndex       = 1
	)
	items := []types.TransactWriteItem{
		{Put: s.constraintPut(item.Name, id)},
		{Put: &types.Put{
			TableName:           aws.String(s.config.ItemsTable),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		}},
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if i, ok := conditionFailedIndex(err); ok {
		switch i {
		case constraintPutIndex:
			return itemRecord{}, ErrDuplicateValue
		case itemPutIndex:
			return itemRecord{}, ErrAlreadyExists
		}
	}
	if err != nil {
		return itemRecord{}, fmt.Errorf("insert item: %w", err)
	}
	return rec, nil
}

// Replace overwrites the item with optimistic locking and increments its
// version by one. Optional attributes absent from item are removed. When the
// name changes, the old constraint is released and the new one claimed in
// the same transaction.
func (s *Store) Replace(ctx context.Context, id string, item catalog.Item, expectedVersion int64) (catalog.Item, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return catalog.Item{}, err
	}
	if current.Version != expectedVersion {
		return catalog.Item{}, ErrConcurrentModification
	}

	rec := newRecord(id, item)
	rec.Version = expectedVersion + 1
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	update, err := s.itemUpdate(rec, expectedVersion)
	if err != nil {
		return catalog.Item{}, err
	}

	if current.Name == item.Name {
		_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 update.TableName,
			Key:                       update.Key,
			UpdateExpression:          update.UpdateExpression,
			ConditionExpression:       update.ConditionExpression,
			ExpressionAttributeNames:  update.ExpressionAttributeNames,
			ExpressionAttributeValues: update.ExpressionAttributeValues,
		})
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return catalog.Item{}, ErrConcurrentModification
		}
		if err != nil {
			return catalog.Item{}, fmt.Errorf("update item %s: %w", id, err)
		}
		return rec.item(), nil
	}

	const newConstraintIndex = 1
	items := []types.TransactWriteItem{
		{Delete: s.constraintDelete(current.Name, id)},
		{Put: s.constraintPut(item.Name, id)},
		{Update: update},
	}
	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if i, ok := conditionFailedIndex(err); ok {
		if i == newConstraintIndex {
			return catalog.Item{}, ErrDuplicateValue
		}
		return catalog.Item{}, ErrConcurrentModification
	}
	if err != nil {
		return catalog.Item{}, fmt.Errorf("replace item %s: %w", id, err)
	}
	return rec.item(), nil
}

// itemUpdate builds the version-conditioned update writing every attribute
// of rec.
func (s *Store) itemUpdate(rec itemRecord, expectedVersion int64) (*types.Update, error) {
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}

	exprNames := map[string]string{
		"#version": attrVersion,
	}
	exprValues := map[string]types.AttributeValue{
		":one":              &types.AttributeValueMemberN{Value: "1"},
		":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
	}

	// Sorted for deterministic expressions
	attrs := make([]string, 0, len(av))
	for k := range av {
		if !managedAttrs[k] {
			attrs = append(attrs, k)
		}
	}
	sort.Strings(attrs)

	var setClauses []string
	for i, k := range attrs {
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = k
		exprValues[valueKey] = av[k]
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	setClauses = append(setClauses, "#version = #version + :one")

	var removeClauses []string
	for i, k := range optionalAttrs {
		if _, ok := av[k]; ok {
			continue
		}
		nameKey := fmt.Sprintf("#rm%d", i)
		exprNames[nameKey] = k
		removeClauses = append(removeClauses, nameKey)
	}

	updateExpr := "SET " + strings.Join(setClauses, ", ")
	if len(removeClauses) > 0 {
		updateExpr += " REMOVE " + strings.Join(removeClauses, ", ")
	}

	return &types.Update{
		TableName:                 aws.String(s.config.ItemsTable),
		Key:                       itemKey(rec.ID),
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String("attribute_exists(id) AND #version = :expected_version"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}, nil
}

// Delete removes an item and its name constraint. It reports false if the
// item does not exist.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		items := []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:                aws.String(s.config.ItemsTable),
				Key:                      itemKey(id),
				ConditionExpression:      aws.String("#version = :expected_version"),
				ExpressionAttributeNames: map[string]string{"#version": attrVersion},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(current.Version, 10)},
				},
			}},
			{Delete: s.constraintDelete(current.Name, id)},
		}
		_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		if err == nil {
			return true, nil
		}
		if _, ok := conditionFailedIndex(err); ok {
			if attempt < maxDeleteAttempts {
				continue
			}
			return false, ErrConcurrentModification
		}
		return false, fmt.Errorf("delete item %s: %w", id, err)
	}
}

// ReleaseName deletes the name constraint if it is still owned by itemID and
// the item no longer carries the name. Constraints that are missing, owned by
// another item or still in use, e.g. after a rename and a rename back, are
// left untouched.
func (s *Store) ReleaseName(ctx context.Context, name, itemID string) error {
	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{ConditionCheck: &types.ConditionCheck{
				TableName:           aws.String(s.config.ItemsTable),
				Key:                 itemKey(itemID),
				ConditionExpression: aws.String("attribute_not_exists(#id) OR #name <> :name"),
				ExpressionAttributeNames: map[string]string{
					"#id":   attrID,
					"#name": attrName,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":name": &types.AttributeValueMemberS{Value: name},
				},
			}},
			{Delete: &types.Delete{
				TableName:           aws.String(s.config.UniqueTable),
				Key:                 constraintKey(name),
				ConditionExpression: aws.String("#item_id = :id"),
				ExpressionAttributeNames: map[string]string{
					"#item_id": attrItemID,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":id": &types.AttributeValueMemberS{Value: itemID},
				},
			}},
		},
	})

	// Name still in use, already released or reassigned
	if _, failed := conditionFailedIndex(err); failed {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release name constraint: %w", err)
	}
	return nil
}

// constraintPut claims name for itemID. It fails if any item owns the name.
func (s *Store) constraintPut(name, itemID string) *types.Put {
	return &types.Put{
		TableName: aws.String(s.config.UniqueTable),
		Item: map[string]types.AttributeValue{
			attrPK:         &types.AttributeValueMemberS{Value: keys.ConstraintPK(constraintScope, attrName, name)},
			attrSK:         &types.AttributeValueMemberS{Value: constraintSK},
			attrItemID:     &types.AttributeValueMemberS{Value: itemID},
			attrFieldName:  &types.AttributeValueMemberS{Value: attrName},
			attrFieldValue: &types.AttributeValueMemberS{Value: name},
		},
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	}
}

// constraintDelete releases name. It fails only if another item owns it.
func (s *Store) constraintDelete(name, itemID string) *types.Delete {
	return &types.Delete{
		TableName:           aws.String(s.config.UniqueTable),
		Key:                 constraintKey(name),
		ConditionExpression: aws.String("attribute_not_exists(pk) OR #item_id = :id"),
		ExpressionAttributeNames: map[string]string{
			"#item_id": attrItemID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: itemID},
		},
	}
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

func constraintKey(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: keys.ConstraintPK(constraintScope, attrName, name)},
		attrSK: &types.AttributeValueMemberS{Value: constraintSK},
	}
}

// conditionFailedIndex returns the index of the first transaction item whose
// condition failed, if err is a cancelled transaction.
func conditionFailedIndex(err error) (int, bool) {
	var txErr *types.TransactionCanceledException
	if !errors.As(err, &txErr) {
		return 0, false
	}
	for i, reason := range txErr.CancellationReasons {
		if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return i, true
		}
	}
	return 0, false
}
