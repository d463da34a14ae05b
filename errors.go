package treeboard

import (
	"errors"
	"fmt"
)

var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrClosed           = errors.New("controller is closed")
	ErrInvalidAlgorithm = errors.New("invalid sort algorithm")
	ErrInvalidStructure = errors.New("invalid structure type")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrEmptyUpload      = errors.New("no file selected")
	ErrMissingData      = errors.New("response has no data")
)

// ValidationError is detected client-side and blocks the remote call.
// It is rendered inline next to the offending input.
type ValidationError struct {
	Field   string
	Message string
	Err     error // sentinel, when one applies
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError is a network, status or decoding failure
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError is a response that settled with success=false
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// IsValidation reports whether err is a client-side validation failure
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
