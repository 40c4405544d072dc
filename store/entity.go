package store

import (
	"strings"

	"github.com/jacentio/chips-catalog/catalog"
)

// Attribute names of the items table.
const (
	attrID            = "id"
	attrName          = "name"
	attrNameLower     = "name_lower"
	attrCategoryLabel = "category_label"
	attrKind          = "kind"
	attrStockQuantity = "stock_quantity"
	attrPrice         = "price"
	attrDiscountRate  = "discount_rate"
	attrAvailable     = "available"
	attrTags          = "tags"
	attrVersion       = "version"
	attrCreatedAt     = "created_at"
	attrUpdatedAt     = "updated_at"
)

// Attribute names of the unique constraint table.
const (
	attrPK         = "pk"
	attrSK         = "sk"
	attrItemID     = "item_id"
	attrFieldName  = "field_name"
	attrFieldValue = "field_value"

	constraintSK    = "CONSTRAINT"
	constraintScope = "item"
)

// optionalAttrs are removed from a stored item when a replacement omits them.
var optionalAttrs = []string{attrKind, attrDiscountRate, attrAvailable, attrTags}

// managedAttrs are never overwritten from caller data on replace.
var managedAttrs = map[string]bool{
	attrID:        true,
	attrVersion:   true,
	attrCreatedAt: true,
}

// itemRecord is the DynamoDB representation of a catalog item.
type itemRecord struct {
	ID            string   `dynamodbav:"id"`
	Name          string   `dynamodbav:"name"`
	NameLower     string   `dynamodbav:"name_lower"`
	CategoryLabel string   `dynamodbav:"category_label"`
	Kind          string   `dynamodbav:"kind,omitempty"`
	StockQuantity float64  `dynamodbav:"stock_quantity"`
	Price         float64  `dynamodbav:"price"`
	DiscountRate  *float64 `dynamodbav:"discount_rate,omitempty"`
	Available     *bool    `dynamodbav:"available,omitempty"`
	Tags          []string `dynamodbav:"tags,omitempty"`
	Version       int64    `dynamodbav:"version"`
	CreatedAt     string   `dynamodbav:"created_at"`
	UpdatedAt     string   `dynamodbav:"updated_at"`
}

func newRecord(id string, item catalog.Item) itemRecord {
	return itemRecord{
		ID:            id,
		Name:          item.Name,
		NameLower:     strings.ToLower(item.Name),
		CategoryLabel: item.CategoryLabel,
		Kind:          string(item.Kind),
		StockQuantity: item.StockQuantity,
		Price:         item.Price,
		DiscountRate:  item.DiscountRate,
		Available:     item.Available,
		Tags:          item.Tags,
	}
}

func (r itemRecord) item() catalog.Item {
	return catalog.Item{
		ID:            r.ID,
		Name:          r.Name,
		CategoryLabel: r.CategoryLabel,
		Kind:          catalog.Kind(r.Kind),
		StockQuantity: r.StockQuantity,
		Price:         r.Price,
		DiscountRate:  r.DiscountRate,
		Available:     r.Available,
		Tags:          r.Tags,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
