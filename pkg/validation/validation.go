// Package validation performs the shallow format checks run on form input
// before any request is sent. Business rules stay with the backend.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[0-9+().\s-]{6,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register phone validation: %v", err))
	}
	return v
}

// FieldError is the first failed rule of one form field.
type FieldError struct {
	Field   string
	Message string
}

// Errors lists field errors in form order.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Field returns the message for field, or "" when it is valid.
func (e Errors) Field(name string) string {
	for _, fe := range e {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

// AsErrors unwraps err into field errors.
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// check runs the struct rules and merges them with errors found while coercing
// input. Coercion errors take precedence for their field.
func check(v any, coerced Errors) error {
	errs := append(Errors(nil), coerced...)
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate form: %w", err)
		}
		for _, fe := range verrs {
			if errs.Field(fe.Field()) != "" {
				continue
			}
			errs = append(errs, FieldError{Field: fe.Field(), Message: message(fe)})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func message(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "phone":
		return "Invalid phone format."
	case "email":
		return "Invalid email address."
	case "max":
		return fmt.Sprintf("%s is too long.", label)
	default:
		return fmt.Sprintf("Invalid %s.", label)
	}
}
