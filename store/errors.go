package store

import (
	"errors"
	"fmt"

	"github.com/jacentio/chips-catalog/catalog"
)

var (
	// ErrNotFound is returned when an item doesn't exist.
	ErrNotFound = fmt.Errorf("catalog store: %w", catalog.ErrNotFound)

	// ErrAlreadyExists is returned when an item with the same ID already exists.
	ErrAlreadyExists = errors.New("catalog store: item already exists")

	// ErrConcurrentModification is returned when optimistic lock fails (version mismatch).
	ErrConcurrentModification = fmt.Errorf("catalog store: %w", catalog.ErrVersionConflict)

	// ErrDuplicateValue is returned when the name constraint is violated.
	ErrDuplicateValue = fmt.Errorf("catalog store: %w", catalog.ErrDuplicateName)
)
