package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Base is a structured error carrying a stable machine-readable code next to
// the human-readable message.
type Base struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Base) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, message string) *Base {
	return &Base{Code: code, Message: message}
}

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewFieldRequiredError(field string) *FieldError {
	return &FieldError{
		Field:   field,
		Code:    "FIELD_REQUIRED",
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidFieldError(field, message string) *FieldError {
	return &FieldError{
		Field:   field,
		Code:    "FIELD_INVALID",
		Message: message,
	}
}

// ValidationErrors maps field names to their first validation failure.
type ValidationErrors map[string]*FieldError

func (e ValidationErrors) Error() string {
	for field, fieldErr := range e {
		return fmt.Sprintf("validation failed: %s: %s", field, fieldErr.Message)
	}
	return "validation failed"
}

// ProcessValidatorErrors converts go-playground validator errors into
// ValidationErrors keyed by struct field name.
func ProcessValidatorErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fieldErr := range errs {
		field := fieldErr.Field()
		if _, seen := out[field]; seen {
			continue
		}
		switch fieldErr.Tag() {
		case "required":
			out[field] = NewFieldRequiredError(field)
		default:
			out[field] = NewInvalidFieldError(field, fmt.Sprintf("%s failed %q validation", field, fieldErr.Tag()))
		}
	}
	return out
}
