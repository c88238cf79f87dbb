package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their form name so messages line up with template inputs.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s against its `validate` tags and converts failures into a
// *apperrors.ValidationError. It returns nil when s is valid.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &apperrors.ValidationError{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), formatValidationError(fe))
	}
	return out
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this value has at most " + e.Param() + " characters."
	case "gt", "gte", "min":
		return "Ensure this value is at least " + e.Param() + "."
	case "lte":
		return "Ensure this value is at most " + e.Param() + "."
	case "datetime":
		return "Enter a valid date (YYYY-MM-DD)."
	default:
		return "Invalid value (" + e.Tag() + ")."
	}
}
