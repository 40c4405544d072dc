// Package memstore is an in-memory catalog.Repository with the same
// uniqueness and versioning rules as the DynamoDB store. It backs the
// service tests and local experiments.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jacentio/chips-catalog/catalog"
	"github.com/jacentio/chips-catalog/internal/keys"
)

// Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	items map[string]catalog.Item
	names map[string]string
	now   func() time.Time
	hooks Hooks
}

// Hooks inject behavior for tests. Each hook runs with the store unlocked
// before the operation; a non-nil error is returned as is.
type Hooks struct {
	BeforeFind    func(q catalog.Query) error
	BeforeInsert  func(item catalog.Item) error
	BeforeReplace func(id string, expectedVersion int64) error
	BeforeDelete  func(id string) error
}

var _ catalog.Repository = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		items: map[string]catalog.Item{},
		names: map[string]string{},
		now:   time.Now,
	}
}

// SetHooks replaces the test hooks.
func (s *Store) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) FindByID(_ context.Context, id string) (*catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	item = clone(item)
	return &item, nil
}

func (s *Store) Find(_ context.Context, q catalog.Query) ([]catalog.Item, error) {
	if h := s.hook().BeforeFind; h != nil {
		if err := h(q); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []catalog.Item{}
	for _, item := range s.items {
		if matches(item, q) {
			out = append(out, clone(item))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) FindIDByName(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.names[name]
	return id, ok, nil
}

// Insert stores item at version 0. A new identifier is generated unless
// item.ID is set.
func (s *Store) Insert(_ context.Context, item catalog.Item) (catalog.Item, error) {
	if h := s.hook().BeforeInsert; h != nil {
		if err := h(item); err != nil {
			return catalog.Item{}, err
		}
	}

	id := item.ID
	if id == "" {
		var err error
		if id, err = keys.NewID(); err != nil {
			return catalog.Item{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.names[item.Name]; taken {
		return catalog.Item{}, catalog.ErrDuplicateName
	}
	if _, exists := s.items[id]; exists {
		return catalog.Item{}, catalog.ErrDuplicateName
	}

	now := s.timestamp()
	item = clone(item)
	item.ID = id
	item.Version = 0
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[id] = item
	s.names[item.Name] = id
	return clone(item), nil
}

func (s *Store) Replace(_ context.Context, id string, item catalog.Item, expectedVersion int64) (catalog.Item, error) {
	if h := s.hook().BeforeReplace; h != nil {
		if err := h(id, expectedVersion); err != nil {
			return catalog.Item{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[id]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	if current.Version != expectedVersion {
		return catalog.Item{}, catalog.ErrVersionConflict
	}
	if owner, taken := s.names[item.Name]; taken && owner != id {
		return catalog.Item{}, catalog.ErrDuplicateName
	}

	item = clone(item)
	item.ID = id
	item.Version = current.Version + 1
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = s.timestamp()
	delete(s.names, current.Name)
	s.names[item.Name] = id
	s.items[id] = item
	return clone(item), nil
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	if h := s.hook().BeforeDelete; h != nil {
		if err := h(id); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[id]
	if !ok {
		return false, nil
	}
	delete(s.items, id)
	delete(s.names, current.Name)
	return true, nil
}

func (s *Store) hook() Hooks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hooks
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func matches(item catalog.Item, q catalog.Query) bool {
	if q.NameContains != "" && !strings.Contains(strings.ToLower(item.Name), q.NameContains) {
		return false
	}
	if q.NameEquals != "" && item.Name != q.NameEquals {
		return false
	}
	if q.CategoryLabel != nil && item.CategoryLabel != *q.CategoryLabel {
		return false
	}
	if q.Kind != nil && item.Kind != *q.Kind {
		return false
	}
	if q.StockQuantity != nil && item.StockQuantity != *q.StockQuantity {
		return false
	}
	if q.Price != nil && item.Price != *q.Price {
		return false
	}
	if q.DiscountRate != nil && (item.DiscountRate == nil || *item.DiscountRate != *q.DiscountRate) {
		return false
	}
	if q.Available != nil && (item.Available == nil || *item.Available != *q.Available) {
		return false
	}
	for _, tag := range q.Tags {
		if !contains(item.Tags, tag) {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func clone(item catalog.Item) catalog.Item {
	if item.DiscountRate != nil {
		d := *item.DiscountRate
		item.DiscountRate = &d
	}
	if item.Available != nil {
		a := *item.Available
		item.Available = &a
	}
	if item.Tags != nil {
		item.Tags = append([]string(nil), item.Tags...)
	}
	return item
}
