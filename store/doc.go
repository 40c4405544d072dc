// Package store provides the DynamoDB data access layer for catalog items.
//
// [Store] implements catalog.Repository on two tables:
//
//   - the items table, keyed by "id", holding one item per row with its
//     optimistic lock "version" and "created_at"/"updated_at" timestamps
//   - the unique constraint table, keyed by "pk"/"sk", holding one row per
//     live item name
//
// Every write that creates, renames or removes an item also writes its
// constraint row in the same TransactWriteItems call, so the storage layer
// itself guarantees that no two items share a name, even when two writers
// race past an application-level existence check.
//
// # Optimistic Locking
//
// Items start at version 0. Replace and Delete are conditioned on the version
// the caller read, and Replace increments the version by one in the same
// write:
//
//	SET ..., #version = #version + :one
//	CONDITION attribute_exists(id) AND #version = :expected_version
//
// # Configuration
//
// Use [DefaultConfig] and override table names as needed:
//
//	cfg := store.DefaultConfig()
//	cfg.ItemsTable = "chips-prod-items"
//	s := store.New(dynamodb.NewFromConfig(awsCfg), cfg)
//
// # Errors
//
// The package defines domain-specific errors, each matching the
// corresponding catalog sentinel with errors.Is:
//
//   - [ErrNotFound] - item doesn't exist (catalog.ErrNotFound)
//   - [ErrDuplicateValue] - name already taken (catalog.ErrDuplicateName)
//   - [ErrConcurrentModification] - optimistic lock failed (catalog.ErrVersionConflict)
//   - [ErrAlreadyExists] - generated identifier collided
package store
