package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrIndexOutOfRange     = errors.New("cart index out of range")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrProductNotFound     = errors.New("product not found")
	ErrDuplicateSubmission = errors.New("idempotent key already exists")
)

// MissingFieldError reports the first mandatory customer field found empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// IsValidationError reports whether err is user-correctable input that
// was rejected before any side effect.
func IsValidationError(err error) bool {
	var missing *MissingFieldError
	return errors.As(err, &missing) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrProductNotFound)
}
