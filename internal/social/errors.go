package social

import (
	"errors"
	"fmt"
)

// Error kinds. Every ServiceError matches exactly one of them through errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

const internalMessage = "Internal server error"

// ServiceError carries a stable code, a client-facing message and its kind.
type ServiceError struct {
	code    string
	message string
	kind    error
	err     error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
	return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.err)
}

func (e *ServiceError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

func (e *ServiceError) Code() string {
	return e.code
}

// Message is safe to return to API clients.
func (e *ServiceError) Message() string {
	return e.message
}

func (e *ServiceError) Kind() error {
	return e.kind
}

func newServiceError(operation, reason string, kind error, message string, cause error) error {
	return &ServiceError{
		code:    fmt.Sprintf("%s.%s", operation, reason),
		message: message,
		kind:    kind,
		err:     cause,
	}
}

func validationError(operation, reason, message string) error {
	return newServiceError(operation, reason, ErrValidation, message, nil)
}
