// Package stream provides DynamoDB Streams handlers for the catalog items
// table.
package stream

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// NameReleaser releases a unique name constraint still owned by an item.
// *store.Store satisfies it.
type NameReleaser interface {
	ReleaseName(ctx context.Context, name, itemID string) error
}

// Handler processes items table stream events and releases name constraints
// left behind by items removed or renamed outside the store, e.g. through
// the console or a table restore.
type Handler struct {
	names  NameReleaser
	logger *zap.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(names NameReleaser, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		names:  names,
		logger: logger.Named("janitor"),
	}
}

// HandleEvent processes a batch of DynamoDB stream records.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				zap.String("eventID", record.EventID),
				zap.Error(err),
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord releases the old name of a removed or renamed item.
// Releasing is conditioned on ownership and on the item no longer carrying
// the name, so replays, stale renames and records for writes made through
// the store are harmless.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	oldImage := record.Change.OldImage
	newImage := record.Change.NewImage

	oldName := getStringAttr(oldImage, "name")
	if oldName == "" {
		return nil
	}

	switch record.EventName {
	case string(events.DynamoDBOperationTypeRemove):
	case string(events.DynamoDBOperationTypeModify):
		if getStringAttr(newImage, "name") == oldName {
			return nil
		}
	default:
		return nil
	}

	id := getStringAttr(record.Change.Keys, "id")
	if id == "" {
		id = getStringAttr(oldImage, "id")
	}

	h.logger.Info("releasing name constraint",
		zap.String("event", record.EventName),
		zap.String("id", id),
		zap.String("name", oldName),
		zap.Int64("version", getNumberAttr(oldImage, "version")),
	)

	if err := h.names.ReleaseName(ctx, oldName, id); err != nil {
		return fmt.Errorf("release name of %s: %w", id, err)
	}
	return nil
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
