// Package validator adapts ozzo-validation errors to layered error codes
package validator

import (
	"errors"

	"github.com/KOMKZ/go-yogan-auth/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validatable is implemented by request types
type Validatable interface {
	Validate() error
}

// ValidateRequest runs req.Validate and converts field errors to
// errcode.ErrValidation with a "fields" map. Other errors pass through.
func ValidateRequest(req Validatable) error {
	err := req.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return ConvertValidationError(fieldErrs)
	}
	return err
}

// ConvertValidationError flattens ozzo field errors
func ConvertValidationError(errs validation.Errors) error {
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return errcode.ErrValidation.WithData("fields", fields)
}
