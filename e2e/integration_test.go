//go:build e2e

// Package e2e contains end-to-end tests against real DynamoDB tables, e.g.
// DynamoDB Local. Run with:
//
//	DYNAMODB_ENDPOINT=http://localhost:8000 go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/chips-catalog/catalog"
	"github.com/jacentio/chips-catalog/internal/config"
	"github.com/jacentio/chips-catalog/internal/fixtures"
	"github.com/jacentio/chips-catalog/store"
	"github.com/jacentio/chips-catalog/stream"
)

// Table names are unique per test run to avoid conflicts.
const tablePrefix = "chips-e2e-test"

var (
	ddbClient *dynamodb.Client
	testStore *store.Store
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	cfg := config.Load()
	if cfg.DynamoDBEndpoint == "" && os.Getenv("E2E_AWS") == "" {
		fmt.Println("Skipping e2e tests: set DYNAMODB_ENDPOINT or E2E_AWS=1")
		os.Exit(0)
	}

	testID := uuid.New().String()[:8]
	cfg.ItemsTable = fmt.Sprintf("%s-%s-items", tablePrefix, testID)
	cfg.UniqueTable = fmt.Sprintf("%s-%s-unique", tablePrefix, testID)
	fmt.Printf("Test ID: %s\n", testID)

	ctx := context.Background()
	client, err := cfg.DynamoDB(ctx)
	if err != nil {
		fmt.Printf("Failed to create DynamoDB client: %v\n", err)
		os.Exit(1)
	}
	ddbClient = client
	testStore = store.New(client, cfg.Store())

	if err := testStore.EnsureTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	for _, table := range []string{cfg.ItemsTable, cfg.UniqueTable} {
		if _, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(table)}); err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", table, err)
		}
	}

	os.Exit(code)
}

// uniqueName returns a name no other test uses.
func uniqueName(prefix string) string {
	return prefix + " " + uuid.New().String()[:8]
}

func candidate(name string) catalog.Candidate {
	return catalog.Candidate{
		"name":           name,
		"category_label": "Cheese",
		"kind":           "KARTOFFEL",
		"stock_quantity": 12,
		"price":          1.99,
	}
}

func services() (*catalog.ReadService, *catalog.WriteService) {
	return catalog.NewReadService(testStore, nil), catalog.NewWriteService(testStore, nil, nil, nil)
}

// --- Tests ---

func TestEnsureTables_Idempotent(t *testing.T) {
	if err := testStore.EnsureTables(context.Background()); err != nil {
		t.Fatalf("EnsureTables failed: %v", err)
	}
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	read, write := services()
	name := uniqueName("Cheesy Chuck")

	id, err := write.Create(ctx, candidate(name))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	item, err := read.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if item.Name != name || item.Version != 0 {
		t.Errorf("unexpected item %+v", item)
	}
	if item.CreatedAt == "" || item.UpdatedAt == "" {
		t.Error("expected timestamps to be set")
	}

	items, err := read.Find(ctx, catalog.Filter{"name": name})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != id {
		t.Errorf("expected exactly the created item, got %+v", items)
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	ctx := context.Background()
	_, write := services()
	name := uniqueName("Doppelt")

	if _, err := write.Create(ctx, candidate(name)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := write.Create(ctx, candidate(name))
	var exists catalog.NameExists
	if !errors.As(err, &exists) {
		t.Fatalf("expected NameExists, got %v", err)
	}
}

func TestStore_InsertRejectsTakenName(t *testing.T) {
	ctx := context.Background()
	name := uniqueName("Backstop")

	if _, err := testStore.Insert(ctx, catalog.Item{Name: name, CategoryLabel: "B"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	_, err := testStore.Insert(ctx, catalog.Item{Name: name, CategoryLabel: "B"})
	if !errors.Is(err, catalog.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestUpdate_VersionsAndRename(t *testing.T) {
	ctx := context.Background()
	read, write := services()
	name := uniqueName("Alt")

	id, err := write.Create(ctx, candidate(name))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	renamed := uniqueName("Neu")
	version, err := write.Update(ctx, id, candidate(renamed), `"0"`)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}

	// The old name is free again.
	if _, err := write.Create(ctx, candidate(name)); err != nil {
		t.Errorf("expected old name to be reusable, got %v", err)
	}

	_, err = write.Update(ctx, id, candidate(renamed), `"0"`)
	var outdated catalog.VersionOutdated
	if !errors.As(err, &outdated) {
		t.Errorf("expected VersionOutdated, got %v", err)
	}

	item, err := read.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if item.Name != renamed || item.Version != 1 {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestUpdate_RemovesOptionalAttributes(t *testing.T) {
	ctx := context.Background()
	read, write := services()

	c := candidate(uniqueName("Optional"))
	c["discount_rate"] = 0.1
	c["tags"] = []any{"PAPRIKA"}
	id, err := write.Create(ctx, c)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	delete(c, "discount_rate")
	delete(c, "tags")
	delete(c, "kind")
	if _, err := write.Update(ctx, id, c, `"0"`); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	item, err := read.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if item.DiscountRate != nil || item.Tags != nil || item.Kind != "" {
		t.Errorf("expected optional attributes to be removed, got %+v", item)
	}
}

func TestUpdate_ConcurrentWritersEndUpSequential(t *testing.T) {
	ctx := context.Background()
	read, write := services()
	name := uniqueName("Parallel")

	id, err := write.Create(ctx, candidate(name))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const writers = 3
	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded int
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := write.Update(ctx, id, candidate(name), `"0"`); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	item, err := read.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if item.Version != int64(succeeded) {
		t.Errorf("expected version %d after %d successful updates, got %d", succeeded, succeeded, item.Version)
	}
}

func TestDelete_ReleasesName(t *testing.T) {
	ctx := context.Background()
	read, write := services()
	name := uniqueName("Weg")

	id, err := write.Create(ctx, candidate(name))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err := write.Delete(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got %v, %v", deleted, err)
	}
	if deleted, _ := write.Delete(ctx, id); deleted {
		t.Error("expected second delete to report false")
	}
	if _, err := read.FindByID(ctx, id); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := write.Create(ctx, candidate(name)); err != nil {
		t.Errorf("expected name to be reusable, got %v", err)
	}
}

func TestFixtures_SeedAndFilter(t *testing.T) {
	ctx := context.Background()
	read, _ := services()

	for _, item := range fixtures.Items() {
		if _, err := testStore.Insert(ctx, item); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			t.Fatalf("Insert %s failed: %v", item.Name, err)
		}
	}

	items, err := read.Find(ctx, catalog.Filter{"ungarisch": "true"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != fixtures.BetaID {
		t.Errorf("expected only Beta, got %+v", items)
	}

	items, err = read.Find(ctx, catalog.Filter{"name": "PHI", "available": "false"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != fixtures.PhiID {
		t.Errorf("expected only Phi, got %+v", items)
	}
}

func TestJanitor_ReleasesOrphanedName(t *testing.T) {
	ctx := context.Background()
	_, write := services()
	name := uniqueName("Verwaist")

	id, err := write.Create(ctx, candidate(name))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Delete the item behind the store's back, leaving its constraint row.
	_, err = ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(testStore.Config().ItemsTable),
		Key:       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
	})
	if err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if _, owned, _ := testStore.FindIDByName(ctx, name); !owned {
		t.Fatal("expected constraint row to survive the raw delete")
	}

	handler := stream.NewHandler(testStore, nil)
	err = handler.HandleEvent(ctx, events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{{
			EventID:   "1",
			EventName: "REMOVE",
			Change: events.DynamoDBStreamRecord{
				Keys: map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute(id)},
				OldImage: map[string]events.DynamoDBAttributeValue{
					"id":   events.NewStringAttribute(id),
					"name": events.NewStringAttribute(name),
				},
			},
		}},
	})
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if _, owned, _ := testStore.FindIDByName(ctx, name); owned {
		t.Error("expected janitor to release the name")
	}
}

func TestJanitor_RenameAndBackKeepsConstraint(t *testing.T) {
	ctx := context.Background()
	_, write := services()
	nameA := uniqueName("Hin")
	nameB := uniqueName("Her")

	id, err := write.Create(ctx, candidate(nameA))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := write.Update(ctx, id, candidate(nameB), `"0"`); err != nil {
		t.Fatalf("Update to B failed: %v", err)
	}
	if _, err := write.Update(ctx, id, candidate(nameA), `"1"`); err != nil {
		t.Fatalf("Update back to A failed: %v", err)
	}

	// Stream records of both renames arrive after the second one committed.
	image := func(name string) map[string]events.DynamoDBAttributeValue {
		return map[string]events.DynamoDBAttributeValue{
			"id":   events.NewStringAttribute(id),
			"name": events.NewStringAttribute(name),
		}
	}
	keys := map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute(id)}
	handler := stream.NewHandler(testStore, nil)
	err = handler.HandleEvent(ctx, events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			{EventID: "1", EventName: "MODIFY", Change: events.DynamoDBStreamRecord{Keys: keys, OldImage: image(nameA), NewImage: image(nameB)}},
			{EventID: "2", EventName: "MODIFY", Change: events.DynamoDBStreamRecord{Keys: keys, OldImage: image(nameB), NewImage: image(nameA)}},
		},
	})
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if owner, owned, _ := testStore.FindIDByName(ctx, nameA); !owned || owner != id {
		t.Fatalf("expected %s to still own %q, got %q, %v", id, nameA, owner, owned)
	}
	_, err = write.Create(ctx, candidate(nameA))
	var exists catalog.NameExists
	if !errors.As(err, &exists) {
		t.Errorf("expected NameExists for the live name, got %v", err)
	}
	if _, err := testStore.Insert(ctx, catalog.Item{Name: nameA, CategoryLabel: "B"}); !errors.Is(err, catalog.ErrDuplicateName) {
		t.Errorf("expected store to reject the live name, got %v", err)
	}
}
