package model

import (
	"fmt"
	"sort"
	"strings"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeLineNotFound     = "LINE_NOT_FOUND"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeEmptyCart        = "EMPTY_CART"
	ErrCodeStockConflict    = "STOCK_CONFLICT"
	ErrCodeChallengeExpired = "CHALLENGE_EXPIRED"
	ErrCodeCodeMismatch     = "CODE_MISMATCH"
	ErrCodeAlreadyPaid      = "ALREADY_PAID"
	ErrCodeOrderNotFound    = "ORDER_NOT_FOUND"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// DomainError is a recoverable business-rule failure. Handlers map
// these onto HTTP statuses; anything else is treated as internal.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidQuantity  = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrLineNotFound     = NewDomainError(ErrCodeLineNotFound, "No such line item in the cart")
	ErrEmptyCart        = NewDomainError(ErrCodeEmptyCart, "Cart has no line items")
	ErrChallengeExpired = NewDomainError(ErrCodeChallengeExpired, "Passcode has expired, request a new one")
	ErrCodeInvalid      = NewDomainError(ErrCodeCodeMismatch, "Passcode does not match")
)

// ValidationErrors collects field-scoped validation failures so a
// caller can surface every offending field at once rather than only
// the first one. A nil/empty set means the input passed.
type ValidationErrors map[string]string

// Add records a failure for the named field, keeping the first message
// when a field fails more than one rule.
func (v ValidationErrors) Add(field, message string) {
	if _, seen := v[field]; !seen {
		v[field] = message
	}
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(v))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
