package catalog

import (
	"encoding/json"
	"math"
)

// Kind is the product kind of a catalog item.
type Kind string

const (
	KindPotato      Kind = "KARTOFFEL"
	KindSweetPotato Kind = "SUESSKARTOFFEL"
	KindVegetable   Kind = "GEMUESE"
	KindLentil      Kind = "LINSE"
)

// Kinds lists every valid non-empty Kind.
var Kinds = []Kind{KindPotato, KindSweetPotato, KindVegetable, KindLentil}

// Candidate field names. These are the keys accepted by the closed schema.
const (
	FieldID            = "id"
	FieldVersion       = "version"
	FieldName          = "name"
	FieldCategoryLabel = "category_label"
	FieldKind          = "kind"
	FieldStockQuantity = "stock_quantity"
	FieldPrice         = "price"
	FieldDiscountRate  = "discount_rate"
	FieldAvailable     = "available"
	FieldTags          = "tags"
)

// Item is a stored catalog record.
type Item struct {
	// ID is the store-generated identifier (24 hex characters).
	ID string

	Name          string
	CategoryLabel string
	Kind          Kind
	StockQuantity float64
	Price         float64

	// DiscountRate is nil when the item has no discount.
	DiscountRate *float64

	// Available is nil when availability was never set.
	Available *bool

	Tags []string

	// Version is the optimistic concurrency counter, 0 after creation.
	Version int64

	// CreatedAt and UpdatedAt are RFC 3339 timestamps maintained by the store.
	CreatedAt string
	UpdatedAt string
}

// Candidate is an inbound record as decoded by a front-end, e.g. from a JSON
// request body or GraphQL arguments.
type Candidate map[string]any

// toItem converts a validated candidate into an Item. Identity and version
// keys are dropped: both are owned by the store.
func (c Candidate) toItem() Item {
	item := Item{
		Name:          stringValue(c[FieldName]),
		CategoryLabel: stringValue(c[FieldCategoryLabel]),
		Kind:          Kind(stringValue(c[FieldKind])),
	}
	item.StockQuantity, _ = numberValue(c[FieldStockQuantity])
	item.Price, _ = numberValue(c[FieldPrice])
	if v, ok := c[FieldDiscountRate]; ok && v != nil {
		if f, ok := numberValue(v); ok {
			item.DiscountRate = &f
		}
	}
	if v, ok := c[FieldAvailable].(bool); ok {
		item.Available = &v
	}
	if tags, ok := stringSlice(c[FieldTags]); ok && len(tags) > 0 {
		item.Tags = tags
	}
	return item
}

// CandidateFromItem converts a stored item back into a candidate, e.g. to
// modify and resubmit it. Identity, version and timestamps are not included.
func CandidateFromItem(item Item) Candidate {
	c := Candidate{
		FieldName:          item.Name,
		FieldCategoryLabel: item.CategoryLabel,
		FieldStockQuantity: item.StockQuantity,
		FieldPrice:         item.Price,
	}
	if item.Kind != "" {
		c[FieldKind] = string(item.Kind)
	}
	if item.DiscountRate != nil {
		c[FieldDiscountRate] = *item.DiscountRate
	}
	if item.Available != nil {
		c[FieldAvailable] = *item.Available
	}
	if len(item.Tags) > 0 {
		c[FieldTags] = append([]string(nil), item.Tags...)
	}
	return c
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// numberValue accepts every numeric representation a decoder may produce.
// NaN and infinities are rejected; the store cannot hold them.
func numberValue(v any) (float64, bool) {
	f, ok := anyNumber(v)
	if !ok || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func anyNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// stringSlice accepts []string and []any holding only strings.
func stringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}
