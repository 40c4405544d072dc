package catalog

import "context"

// Repository is the persistence capability used by the services. Every
// method is a single atomic store operation; none applies a write partially.
//
// Implementations must enforce name uniqueness themselves and report a
// violation with an error matching ErrDuplicateName.
type Repository interface {
	// FindByID returns the item or an error matching ErrNotFound.
	FindByID(ctx context.Context, id string) (*Item, error)

	// Find returns all items matching q, ordered by name.
	Find(ctx context.Context, q Query) ([]Item, error)

	// FindIDByName returns the identifier of the item owning name.
	FindIDByName(ctx context.Context, name string) (string, bool, error)

	// Insert stores a new item with version 0 and returns it with its
	// assigned identifier.
	Insert(ctx context.Context, item Item) (Item, error)

	// Replace overwrites the item if its stored version equals
	// expectedVersion, incrementing the version by one. It returns errors
	// matching ErrNotFound, ErrVersionConflict or ErrDuplicateName.
	Replace(ctx context.Context, id string, item Item, expectedVersion int64) (Item, error)

	// Delete removes the item and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Notifier delivers a message about a catalog change.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Query is a sanitized read filter. Nil pointers and empty strings mean
// "no restriction".
type Query struct {
	// NameContains matches names containing this lowercased substring,
	// ignoring case.
	NameContains string

	// NameEquals matches the exact name.
	NameEquals string

	CategoryLabel *string
	Kind          *Kind
	StockQuantity *float64
	Price         *float64
	DiscountRate  *float64
	Available     *bool

	// Tags lists values the item's tags must all contain.
	Tags []string
}

// IsZero reports whether q has no restrictions.
func (q Query) IsZero() bool {
	return q.NameContains == "" && q.NameEquals == "" &&
		q.CategoryLabel == nil && q.Kind == nil &&
		q.StockQuantity == nil && q.Price == nil &&
		q.DiscountRate == nil && q.Available == nil &&
		len(q.Tags) == 0
}
