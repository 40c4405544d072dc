package catalog

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Caller-facing violation messages. Clients match on these strings, so they
// must not change.
const (
	MsgName          = "Ein Produktname muss mit einem Buchstaben, einer Ziffer oder _ beginnen."
	MsgCategoryLabel = "Die Geschmacksrichtung muss mit einem Buchstaben, einer Ziffer oder _ beginnen."
	MsgKind          = "Die Art eines Chips-Produktes muss KARTOFFEL, SUESSKARTOFFEL, GEMUESE oder LINSE sein."
	MsgStockQuantity = "Der Bestand eines Chips-Produktes muss mindestens 0 sein."
	MsgPrice         = "Der Preis darf nicht negativ sein."
	MsgDiscountRate  = "Der Rabatt muss ein Wert zwischen 0 und 1 sein."
	MsgAvailable     = `"lieferbar" muss auf true oder false gesetzt sein.`
	MsgVersion       = "Die Versionsnummer muss mindestens 0 sein."
	MsgTagsArray     = "must be array"
	MsgTagsString    = "must be string"
	MsgUnknownField  = "must NOT have additional properties"
)

// fieldOrder fixes the order of reported violations.
var fieldOrder = []string{
	FieldName,
	FieldCategoryLabel,
	FieldKind,
	FieldStockQuantity,
	FieldPrice,
	FieldDiscountRate,
	FieldAvailable,
	FieldVersion,
	FieldTags,
}

var fieldMessages = map[string]string{
	FieldName:          MsgName,
	FieldCategoryLabel: MsgCategoryLabel,
	FieldKind:          MsgKind,
	FieldStockQuantity: MsgStockQuantity,
	FieldPrice:         MsgPrice,
	FieldDiscountRate:  MsgDiscountRate,
	FieldAvailable:     MsgAvailable,
	FieldVersion:       MsgVersion,
}

func knownField(key string) bool {
	if key == FieldID {
		return true
	}
	for _, f := range fieldOrder {
		if f == key {
			return true
		}
	}
	return false
}

var wordStart = regexp.MustCompile(`^\w`)

// candidateSchema carries the type-checked candidate fields for the
// constraint checks. Pointers distinguish absent from zero.
type candidateSchema struct {
	Name          *string  `json:"name" validate:"required,wordstart"`
	CategoryLabel *string  `json:"category_label" validate:"required,wordstart"`
	Kind          string   `json:"kind" validate:"omitempty,oneof=KARTOFFEL SUESSKARTOFFEL GEMUESE LINSE"`
	StockQuantity *float64 `json:"stock_quantity" validate:"required,gte=0"`
	Price         *float64 `json:"price" validate:"required,gte=0"`
	DiscountRate  *float64 `json:"discount_rate" validate:"omitempty,gt=0,lt=1"`
	Version       *float64 `json:"version" validate:"omitempty,gte=0"`
}

// Validator checks candidates against the closed item schema. It is safe for
// concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("wordstart", func(fl validator.FieldLevel) bool {
		return wordStart.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return &Validator{validate: v}
}

// Validate returns the violation messages for a candidate, or an empty slice
// if it is valid. All violations are reported, at most one per field.
func (v *Validator) Validate(c Candidate) []string {
	violations := make(map[string]string)
	unknown := false

	var schema candidateSchema
	for key, value := range c {
		if value == nil {
			// null and absent are the same; required checks catch missing fields
			if !knownField(key) {
				unknown = true
			}
			continue
		}
		switch key {
		case FieldID:
		case FieldName, FieldCategoryLabel, FieldKind:
			s, ok := value.(string)
			if !ok {
				violations[key] = fieldMessages[key]
				continue
			}
			switch key {
			case FieldName:
				schema.Name = &s
			case FieldCategoryLabel:
				schema.CategoryLabel = &s
			default:
				schema.Kind = s
			}
		case FieldStockQuantity, FieldPrice, FieldDiscountRate, FieldVersion:
			f, ok := numberValue(value)
			if !ok {
				violations[key] = fieldMessages[key]
				continue
			}
			switch key {
			case FieldStockQuantity:
				schema.StockQuantity = &f
			case FieldPrice:
				schema.Price = &f
			case FieldDiscountRate:
				schema.DiscountRate = &f
			default:
				schema.Version = &f
			}
		case FieldAvailable:
			if _, ok := value.(bool); !ok {
				violations[key] = MsgAvailable
			}
		case FieldTags:
			if msg := checkTags(value); msg != "" {
				violations[key] = msg
			}
		default:
			unknown = true
		}
	}

	if err := v.validate.Struct(schema); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				field := fe.Field()
				if _, seen := violations[field]; !seen {
					violations[field] = fieldMessages[field]
				}
			}
		}
	}

	messages := make([]string, 0, len(violations)+1)
	for _, field := range fieldOrder {
		if msg, ok := violations[field]; ok {
			messages = append(messages, msg)
		}
	}
	if unknown {
		messages = append(messages, MsgUnknownField)
	}
	return messages
}

func checkTags(value any) string {
	switch tags := value.(type) {
	case []string:
		return ""
	case []any:
		for _, tag := range tags {
			if _, ok := tag.(string); !ok {
				return MsgTagsString
			}
		}
		return ""
	}
	return MsgTagsArray
}
