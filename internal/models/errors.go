package models

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors. Handlers map these to HTTP status codes; everything
// else is treated as an internal failure.
var (
	ErrNotFound           = errors.New("not found")
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrVariantMismatch    = errors.New("selected variant does not belong to this product")
	ErrForbidden          = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrUnsupportedPayment = errors.New("unsupported payment method")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrZoneInUse          = errors.New("cannot delete zone that has addresses assigned to it")
)

// ValidationError carries field-level detail for 422 responses.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
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
