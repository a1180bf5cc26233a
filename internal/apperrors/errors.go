// Package apperrors defines the error taxonomy shared by the backend
// gateways and the HTTP layer: not-found, network failure, server rejection
// and local validation. Gateways classify raw transport errors into these
// kinds so callers can branch with errors.Is / errors.As.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the backend has no resource under the requested id.
var ErrNotFound = errors.New("resource not found")

// NetworkError wraps a request that failed to complete at all (connection
// refused, timeout, DNS).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response from the backend, carrying whatever
// message the backend put in the error payload.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// ValidationError is a precondition that failed locally before any request
// was attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}
