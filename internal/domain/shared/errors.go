package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so that callers can react to it without
// inspecting messages.
type ErrorKind string

const (
	KindValidation      ErrorKind = "VALIDATION"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindBusinessRule    ErrorKind = "BUSINESS_RULE"
	KindPayloadTooLarge ErrorKind = "PAYLOAD_TOO_LARGE"
	KindPersistence     ErrorKind = "PERSISTENCE"
	KindConflict        ErrorKind = "CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same kind and code.
// It lets the sentinel errors below be matched with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a business rule error with the given code
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Kind: KindBusinessRule, Code: code, Message: message}
}

// NewValidationError creates an error for malformed or missing input
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewNotFoundError creates an error for a referenced record that does not exist
func NewNotFoundError(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

// NewBusinessRuleError creates an error for a request the current state does not allow
func NewBusinessRuleError(code, message string) *DomainError {
	return &DomainError{Kind: KindBusinessRule, Code: code, Message: message}
}

// NewPayloadTooLargeError creates an error for content above a size ceiling
func NewPayloadTooLargeError(code, message string) *DomainError {
	return &DomainError{Kind: KindPayloadTooLarge, Code: code, Message: message}
}

// NewConflictError creates an error for a lost optimistic-concurrency race
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(message string, cause error) *DomainError {
	return &DomainError{Kind: KindPersistence, Code: "PERSISTENCE_FAILURE", Message: message, Cause: cause}
}

// KindOf returns the kind of the first DomainError in err's chain.
// Errors that carry no kind are reported as persistence failures.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == kind
}

// Common domain errors
var (
	ErrNotFound            = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewConflictError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
	ErrInvalidState        = NewBusinessRuleError("INVALID_STATE", "Operation not allowed in current state")
)
