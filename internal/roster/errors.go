package roster

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a missing field, a non-positive integer
	// or an empty search term. The store is never mutated.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNotFound indicates the target id of an update, delete or
	// lookup does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is returned by every failing Store operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field names the offending input field, if any.
	Field string

	// Message is a human-readable description.
	Message string

	// ID is the target record id (NOT_FOUND only).
	ID int64
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	if e.ID != 0 {
		return fmt.Sprintf("%s: %s (id=%d)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidation reports whether err is a validation error.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == ErrCodeValidation
	}
	return false
}

// IsNotFound reports whether err is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == ErrCodeNotFound
	}
	return false
}

func newValidationError(field, message string) *Error {
	return &Error{Code: ErrCodeValidation, Field: field, Message: message}
}

func newNotFoundError(id int64) *Error {
	return &Error{Code: ErrCodeNotFound, Message: "no record with that id", ID: id}
}
