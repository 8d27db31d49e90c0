// Package domain holds error categories shared by all aggregate packages.
package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Specific errors wrap exactly one of these so callers
// can classify with errors.Is without knowing every concrete kind.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state transition")
)

// DomainError is a categorized business error. Err carries the category
// sentinel, Entity the aggregate kind involved (when known).
type DomainError struct {
	Err     error
	Entity  string
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Err }

// NewNotFoundError reports that an aggregate could not be located.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Entity:  entity,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewValidationError reports invalid input or a broken invariant.
func NewValidationError(message string) *DomainError {
	return &DomainError{Err: ErrValidation, Message: message}
}

// NewConflictError reports a state clash with another concurrent operation
// or an exhausted shared resource.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: message}
}

// NewInvalidStateError reports an illegal status transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}
