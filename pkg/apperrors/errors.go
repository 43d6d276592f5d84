package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
	ErrConnection             = errors.New("connection failed")
	ErrCredentialsKeyMismatch = errors.New("connection string was encrypted with a different key")
)

// InvalidInputError carries a client-facing message for a rejected request.
// It matches ErrInvalidInput with errors.Is.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InvalidInput builds an InvalidInputError from a format string.
func InvalidInput(format string, args ...any) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// ConnectionError wraps a driver failure to open or reach a target database.
// It matches ErrConnection with errors.Is and unwraps to the driver error.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// NewConnectionError wraps err as a ConnectionError. A nil err stays nil.
func NewConnectionError(err error) error {
	if err == nil {
		return nil
	}
	return &ConnectionError{Err: err}
}
