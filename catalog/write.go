package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// maxReplaceAttempts bounds how often Update re-reads an item after losing a
// race against a concurrent writer.
const maxReplaceAttempts = 3

// WriteService creates, updates and deletes catalog items.
//
// Name uniqueness is checked before every write for a precise error, but the
// repository is the authoritative guard: a name taken between the check and
// the write is still reported as NameExists.
type WriteService struct {
	repo      Repository
	validator *Validator
	notifier  Notifier
	logger    *zap.Logger
}

// NewWriteService creates a WriteService. notifier may be nil to disable
// create notifications; a nil logger disables logging.
func NewWriteService(repo Repository, validator *Validator, notifier Notifier, logger *zap.Logger) *WriteService {
	if validator == nil {
		validator = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WriteService{
		repo:      repo,
		validator: validator,
		notifier:  notifier,
		logger:    logger.Named("write"),
	}
}

// Create stores a new item and returns its identifier. Expected failures are
// a CreateError (ConstraintViolations or NameExists).
func (s *WriteService) Create(ctx context.Context, c Candidate) (string, error) {
	id, err := s.create(ctx, c)
	writeOperations.WithLabelValues("create", outcomeOf(err)).Inc()
	return id, err
}

func (s *WriteService) create(ctx context.Context, c Candidate) (string, error) {
	if messages := s.validator.Validate(c); len(messages) > 0 {
		s.logger.Debug("create: constraint violations", zap.Strings("messages", messages))
		return "", ConstraintViolations{Messages: messages}
	}

	item := c.toItem()
	if _, exists, err := s.repo.FindIDByName(ctx, item.Name); err != nil {
		return "", fmt.Errorf("check name %q: %w", item.Name, err)
	} else if exists {
		return "", NameExists{Name: item.Name}
	}

	stored, err := s.repo.Insert(ctx, item)
	if errors.Is(err, ErrDuplicateName) {
		return "", NameExists{Name: item.Name}
	}
	if err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}

	s.notifyCreated(ctx, stored)
	s.logger.Debug("create", zap.String("id", stored.ID))
	return stored.ID, nil
}

// notifyCreated sends the create notification. Failures are logged and
// counted but do not affect the create result.
func (s *WriteService) notifyCreated(ctx context.Context, item Item) {
	if s.notifier == nil {
		return
	}
	subject := "Neues Chips-Produkt " + item.ID
	body := "Das Chips-Produkt mit dem Produktnamen <strong>" + item.Name + "</strong> ist angelegt"
	if err := s.notifier.Send(ctx, subject, body); err != nil {
		notifications.WithLabelValues(outcomeError).Inc()
		s.logger.Warn("create notification failed",
			zap.String("id", item.ID),
			zap.Error(err),
		)
		return
	}
	notifications.WithLabelValues(outcomeOK).Inc()
}

// Update replaces the item with the given identifier and returns its new
// version. token is the caller's version token ("<digits>"); tokens older
// than the stored version are rejected, equal or newer tokens are accepted.
// Expected failures are an UpdateError.
func (s *WriteService) Update(ctx context.Context, id string, c Candidate, token string) (int64, error) {
	version, err := s.update(ctx, id, c, token)
	writeOperations.WithLabelValues("update", outcomeOf(err)).Inc()
	return version, err
}

func (s *WriteService) update(ctx context.Context, rawID string, c Candidate, token string) (int64, error) {
	id, ok := canonicalID(rawID)
	if !ok {
		s.logger.Debug("update: malformed id", zap.String("id", rawID))
		return 0, RecordNotExists{ID: rawID}
	}

	version, ok := ParseVersionToken(token)
	if !ok {
		s.logger.Debug("update: invalid version token", zap.String("token", token))
		return 0, VersionInvalid{Token: token}
	}

	if messages := s.validator.Validate(c); len(messages) > 0 {
		s.logger.Debug("update: constraint violations", zap.Strings("messages", messages))
		return 0, ConstraintViolations{Messages: messages}
	}

	item := c.toItem()
	ownerID, exists, err := s.repo.FindIDByName(ctx, item.Name)
	if err != nil {
		return 0, fmt.Errorf("check name %q: %w", item.Name, err)
	}
	if exists && ownerID != id {
		return 0, NameExists{Name: item.Name, ID: ownerID}
	}

	for attempt := 1; ; attempt++ {
		current, err := s.repo.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return 0, RecordNotExists{ID: id}
		}
		if err != nil {
			return 0, fmt.Errorf("load item %s: %w", id, err)
		}

		// Only strictly older tokens are stale.
		if version < current.Version {
			s.logger.Debug("update: version outdated",
				zap.String("id", id),
				zap.Int64("token", version),
				zap.Int64("stored", current.Version),
			)
			return 0, VersionOutdated{ID: id, Version: version}
		}

		updated, err := s.repo.Replace(ctx, id, item, current.Version)
		switch {
		case err == nil:
			s.logger.Debug("update", zap.String("id", id), zap.Int64("version", updated.Version))
			return updated.Version, nil
		case errors.Is(err, ErrVersionConflict):
			if attempt >= maxReplaceAttempts {
				return 0, fmt.Errorf("replace item %s after %d attempts: %w", id, attempt, err)
			}
			s.logger.Debug("update: concurrent modification, retrying", zap.String("id", id), zap.Int("attempt", attempt))
		case errors.Is(err, ErrNotFound):
			return 0, RecordNotExists{ID: id}
		case errors.Is(err, ErrDuplicateName):
			return 0, NameExists{Name: item.Name}
		default:
			return 0, fmt.Errorf("replace item %s: %w", id, err)
		}
	}
}

// Delete removes the item with the given identifier and reports whether it
// existed. Deleting a missing or malformed identifier reports false.
func (s *WriteService) Delete(ctx context.Context, rawID string) (bool, error) {
	id, ok := canonicalID(rawID)
	if !ok {
		s.logger.Debug("delete: malformed id", zap.String("id", rawID))
		writeOperations.WithLabelValues("delete", outcomeNotDeleted).Inc()
		return false, nil
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		writeOperations.WithLabelValues("delete", outcomeError).Inc()
		return false, fmt.Errorf("delete item %s: %w", id, err)
	}
	if !deleted {
		writeOperations.WithLabelValues("delete", outcomeNotDeleted).Inc()
	} else {
		writeOperations.WithLabelValues("delete", outcomeOK).Inc()
	}
	s.logger.Debug("delete", zap.String("id", id), zap.Bool("deleted", deleted))
	return deleted, nil
}
