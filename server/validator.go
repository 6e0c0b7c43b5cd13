package server

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/dbworkbench/validation"
)

// Validator adapts go-playground/validator, with the query vocabulary tags installed, to echo.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator backed by validation.New.
func NewValidator() *Validator {
	return &Validator{validate: validation.New()}
}

// GetValidator returns the underlying validator instance.
func (v *Validator) GetValidator() *validator.Validate {
	return v.validate
}

// Validate checks i and converts field failures into a *ValidationError.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// ValidationError lists the fields of a request that failed validation.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// FieldError describes one failed field. Field is the dotted JSON path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// NewValidationError converts validator errors into a ValidationError.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fieldErrors := make([]FieldError, 0, len(errs))

	for _, err := range errs {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fieldPath(err),
			Message: getErrorMessage(err),
			Value:   fmt.Sprintf("%v", err.Value()),
		})
	}

	return &ValidationError{Errors: fieldErrors}
}

func (ve *ValidationError) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + ve.Errors[0].Message
	default:
		return fmt.Sprintf("validation failed: %d errors", len(ve.Errors))
	}
}

// fieldPath drops the root struct name from the namespace: "QuerySpec.filters[0].op" becomes "filters[0].op".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := range len(ns) {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return fe.Field()
}

func getErrorMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	if msg := validation.Message(fe.Tag()); msg != "" {
		return field + " " + msg
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return field + " failed validation"
	}
}
