package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/chips-catalog/catalog"
)

// filter is a scan filter expression with its placeholders.
type filter struct {
	expr   string
	names  map[string]string
	values map[string]types.AttributeValue
}

// buildFilter translates q into a scan filter. A zero query yields an empty
// expression.
func buildFilter(q catalog.Query) filter {
	f := filter{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}
	var conds []string

	if q.NameContains != "" {
		f.names["#name_lower"] = attrNameLower
		f.values[":name_contains"] = &types.AttributeValueMemberS{Value: q.NameContains}
		conds = append(conds, "contains(#name_lower, :name_contains)")
	}
	if q.NameEquals != "" {
		f.names["#name"] = attrName
		f.values[":name"] = &types.AttributeValueMemberS{Value: q.NameEquals}
		conds = append(conds, "#name = :name")
	}
	if q.CategoryLabel != nil {
		f.names["#category_label"] = attrCategoryLabel
		f.values[":category_label"] = &types.AttributeValueMemberS{Value: *q.CategoryLabel}
		conds = append(conds, "#category_label = :category_label")
	}
	if q.Kind != nil {
		f.names["#kind"] = attrKind
		// Empty kinds are not stored.
		if *q.Kind == "" {
			conds = append(conds, "attribute_not_exists(#kind)")
		} else {
			f.values[":kind"] = &types.AttributeValueMemberS{Value: string(*q.Kind)}
			conds = append(conds, "#kind = :kind")
		}
	}
	conds = f.number(conds, attrStockQuantity, q.StockQuantity)
	conds = f.number(conds, attrPrice, q.Price)
	conds = f.number(conds, attrDiscountRate, q.DiscountRate)
	if q.Available != nil {
		f.names["#available"] = attrAvailable
		f.values[":available"] = &types.AttributeValueMemberBOOL{Value: *q.Available}
		conds = append(conds, "#available = :available")
	}
	if len(q.Tags) > 0 {
		f.names["#tags"] = attrTags
		for i, tag := range q.Tags {
			valueKey := fmt.Sprintf(":tag%d", i)
			f.values[valueKey] = &types.AttributeValueMemberS{Value: tag}
			conds = append(conds, fmt.Sprintf("contains(#tags, %s)", valueKey))
		}
	}

	if len(conds) == 0 {
		return filter{}
	}
	f.expr = strings.Join(conds, " AND ")
	if len(f.values) == 0 {
		f.values = nil
	}
	return f
}

func (f *filter) number(conds []string, attr string, v *float64) []string {
	if v == nil {
		return conds
	}
	f.names["#"+attr] = attr
	f.values[":"+attr] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(*v, 'f', -1, 64)}
	return append(conds, fmt.Sprintf("#%s = :%s", attr, attr))
}
