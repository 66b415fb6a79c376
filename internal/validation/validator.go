package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"agri-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Error carries per-field messages keyed by the JSON field name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewFieldError(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

// Get returns the shared validator. Field errors use JSON names and decimal
// amounts are compared as numbers.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("expense_category", func(fl validator.FieldLevel) bool {
			return models.ExpenseCategory(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

func decimalValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

// Struct validates s and returns an *Error describing every failing field.
func Struct(s interface{}) error {
	if err := Get().Struct(s); err != nil {
		return &Error{Fields: FormatValidationError(err)}
	}
	return nil
}

// FormatValidationError turns validator errors into readable messages per field.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["body"] = "invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = "this field is required"
		case "email":
			errs[field] = "invalid email format"
		case "min":
			errs[field] = fmt.Sprintf("must be at least %s characters", e.Param())
		case "max":
			errs[field] = fmt.Sprintf("must be at most %s characters", e.Param())
		case "oneof":
			errs[field] = "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
		case "expense_category":
			errs[field] = "must be one of: " + expenseCategoryList()
		case "eqfield":
			errs[field] = "does not match " + toSnake(e.Param())
		case "gt":
			errs[field] = fmt.Sprintf("must be greater than %s", e.Param())
		case "gte":
			errs[field] = fmt.Sprintf("must be at least %s", e.Param())
		case "datetime":
			errs[field] = "must be a date formatted YYYY-MM-DD"
		default:
			errs[field] = "invalid value"
		}
	}

	return errs
}

func expenseCategoryList() string {
	names := make([]string, len(models.ExpenseCategories))
	for i, c := range models.ExpenseCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
