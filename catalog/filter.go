package catalog

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Filter is a caller-supplied read filter mapping field names to values,
// e.g. decoded query parameters. String values are coerced to the field type.
//
// Besides the exact-match fields (category_label, kind, stock_quantity,
// price, discount_rate, available) a Filter understands two pseudo keys:
// "name", matched as a case-insensitive substring when shorter than
// NameContainsMaxLen characters and exactly otherwise, and tag flags such as
// "paprika": true, which require the tag "PAPRIKA".
type Filter map[string]any

// NameContainsMaxLen is the name length from which the name filter switches
// from substring to exact matching.
const NameContainsMaxLen = 10

// tagFlag maps a boolean filter key to the tag it requires.
type tagFlag struct {
	key string
	tag string
}

var tagFlags = []tagFlag{
	{key: "ungarisch", tag: "UNGARISCH"},
	{key: "paprika", tag: "PAPRIKA"},
}

// exactFilterFields are the only keys allowed as exact-match criteria.
var exactFilterFields = map[string]bool{
	FieldCategoryLabel: true,
	FieldKind:          true,
	FieldStockQuantity: true,
	FieldPrice:         true,
	FieldDiscountRate:  true,
	FieldAvailable:     true,
}

// buildQuery translates a filter into a Query. It reports false when the
// filter contains an unknown key or a value that cannot be coerced, in which
// case nothing may match.
func buildQuery(f Filter) (Query, bool) {
	var q Query

	rest := make(map[string]any, len(f))
	for k, v := range f {
		rest[k] = v
	}

	if name, ok := rest[FieldName]; ok {
		delete(rest, FieldName)
		if s, ok := name.(string); ok {
			if utf8.RuneCountInString(s) < NameContainsMaxLen {
				q.NameContains = strings.ToLower(s)
			} else {
				q.NameEquals = s
			}
		}
	}

	for _, flag := range tagFlags {
		v, ok := rest[flag.key]
		if !ok {
			continue
		}
		delete(rest, flag.key)
		if truthy(v) {
			q.Tags = append(q.Tags, flag.tag)
		}
	}

	for key, value := range rest {
		if !exactFilterFields[key] {
			return Query{}, false
		}
		if !q.set(key, value) {
			return Query{}, false
		}
	}
	return q, true
}

// set assigns one exact-match criterion, coercing string values.
func (q *Query) set(key string, value any) bool {
	switch key {
	case FieldCategoryLabel:
		s, ok := value.(string)
		if !ok {
			return false
		}
		q.CategoryLabel = &s
	case FieldKind:
		s, ok := value.(string)
		if !ok {
			return false
		}
		k := Kind(s)
		q.Kind = &k
	case FieldStockQuantity, FieldPrice, FieldDiscountRate:
		f, ok := coerceNumber(value)
		if !ok {
			return false
		}
		switch key {
		case FieldStockQuantity:
			q.StockQuantity = &f
		case FieldPrice:
			q.Price = &f
		default:
			q.DiscountRate = &f
		}
	case FieldAvailable:
		b, ok := coerceBool(value)
		if !ok {
			return false
		}
		q.Available = &b
	default:
		return false
	}
	return true
}

func coerceNumber(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	}
	return numberValue(v)
}

func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}
