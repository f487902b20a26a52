package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of a kernel error.
type ErrorClass string

const (
	// ErrorClassMalformed indicates an invariant violation in the input.
	// Examples: a state ID missing from the state map, an unknown co-edge ID,
	// a wall-ID list that does not match the co-edge path.
	ErrorClassMalformed ErrorClass = "malformed"

	// ErrorClassDegenerate indicates geometry that cannot produce a result.
	// Examples: extruding an invalid region, a non-positive height range.
	ErrorClassDegenerate ErrorClass = "degenerate"
)

// KernelError represents a classified error with context.
type KernelError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Resource is the ID of the region, constraint or state involved.
	Resource string `json:"resource,omitempty"`

	// Operation is the kernel operation that failed.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *KernelError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	switch {
	case e.Resource != "" && e.Operation != "":
		msg += fmt.Sprintf(" (resource=%s, operation=%s)", e.Resource, e.Operation)
	case e.Resource != "":
		msg += fmt.Sprintf(" (resource=%s)", e.Resource)
	case e.Operation != "":
		msg += fmt.Sprintf(" (operation=%s)", e.Operation)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *KernelError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *KernelError) Is(target error) bool {
	t, ok := target.(*KernelError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewMalformedError creates a new malformed-input error.
func NewMalformedError(message string, err error) *KernelError {
	return &KernelError{
		Class:   ErrorClassMalformed,
		Message: message,
		Err:     err,
	}
}

// NewDegenerateError creates a new degenerate-geometry error.
func NewDegenerateError(message string, err error) *KernelError {
	return &KernelError{
		Class:   ErrorClassDegenerate,
		Message: message,
		Code:    ErrCodeDegenerate,
		Err:     err,
	}
}

// NotFound creates a malformed error for a missing ID.
func NotFound(kind, id string) *KernelError {
	return NewMalformedError(fmt.Sprintf("%s %q not found", kind, id), nil).
		WithCode(ErrCodeNotFound).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

// WithResource adds resource context to an error.
func (e *KernelError) WithResource(resourceID string) *KernelError {
	e.Resource = resourceID
	return e
}

// WithOperation adds operation context to an error.
func (e *KernelError) WithOperation(operation string) *KernelError {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *KernelError) WithCode(code string) *KernelError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *KernelError) WithDetail(key string, value interface{}) *KernelError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsMalformed returns true if the error is classified as malformed.
func IsMalformed(err error) bool {
	var e *KernelError
	if errors.As(err, &e) {
		return e.Class == ErrorClassMalformed
	}
	return false
}

// IsDegenerate returns true if the error is classified as degenerate.
func IsDegenerate(err error) bool {
	var e *KernelError
	if errors.As(err, &e) {
		return e.Class == ErrorClassDegenerate
	}
	return false
}

// IsNotFound returns true for malformed errors caused by a missing ID.
func IsNotFound(err error) bool {
	var e *KernelError
	if errors.As(err, &e) {
		return e.Code == ErrCodeNotFound
	}
	return false
}

// ClassOf returns the class of err, or "" for unclassified errors.
func ClassOf(err error) ErrorClass {
	var e *KernelError
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// Common error codes.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeDegenerate = "DEGENERATE_GEOMETRY"
	ErrCodeCycle      = "CYCLE_DETECTED"
	ErrCodeInternal   = "INTERNAL_ERROR"
)
