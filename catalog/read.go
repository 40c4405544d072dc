package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ReadService resolves catalog items. It never mutates the store.
type ReadService struct {
	repo   Repository
	logger *zap.Logger
}

// NewReadService creates a ReadService. A nil logger disables logging.
func NewReadService(repo Repository, logger *zap.Logger) *ReadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadService{
		repo:   repo,
		logger: logger.Named("read"),
	}
}

// FindByID returns the item with the given identifier. It returns
// ErrNotFound for unknown and malformed identifiers; malformed identifiers
// never reach the store. Hex digits match regardless of case.
func (s *ReadService) FindByID(ctx context.Context, rawID string) (*Item, error) {
	id, ok := canonicalID(rawID)
	if !ok {
		s.logger.Debug("findById: malformed id", zap.String("id", rawID))
		return nil, ErrNotFound
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("findById", zap.String("id", id), zap.Int64("version", item.Version))
	return item, nil
}

// Find returns the items matching f, ordered by name. An empty filter
// returns every item. A filter with an unknown key or an uncoercible value
// matches nothing.
func (s *ReadService) Find(ctx context.Context, f Filter) ([]Item, error) {
	q, ok := buildQuery(f)
	if !ok {
		s.logger.Debug("find: rejected filter", zap.Any("filter", map[string]any(f)))
		return []Item{}, nil
	}

	items, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	s.logger.Debug("find", zap.Int("count", len(items)))
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
