// File: internal/services/vectorindex/errors.go
package vectorindex

import (
	"errors"
	"fmt"
)

const (
	ErrTypeConnection = "connection"
	ErrTypeOperation  = "operation"
	ErrTypeConfig     = "config"
	ErrTypeTimeout    = "timeout"
	ErrTypeRetry      = "retry"
	ErrTypeDimension  = "dimension"
)

// IndexError represents a vector index failure.
type IndexError struct {
	Type    string
	Message string
	Err     error
}

func (e *IndexError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vector index %s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("vector index %s error: %s", e.Type, e.Message)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

func NewConnectionError(message string, err error) *IndexError {
	return &IndexError{Type: ErrTypeConnection, Message: message, Err: err}
}

func NewOperationError(message string, err error) *IndexError {
	return &IndexError{Type: ErrTypeOperation, Message: message, Err: err}
}

func NewConfigError(message string) *IndexError {
	return &IndexError{Type: ErrTypeConfig, Message: message}
}

func NewTimeoutError(message string, err error) *IndexError {
	return &IndexError{Type: ErrTypeTimeout, Message: message, Err: err}
}

func NewRetryError(message string, err error) *IndexError {
	return &IndexError{Type: ErrTypeRetry, Message: message, Err: err}
}

func NewDimensionError(want, got int) *IndexError {
	return &IndexError{Type: ErrTypeDimension, Message: fmt.Sprintf("expected dimension %d, got %d", want, got)}
}

// isPermanent reports errors that retrying cannot fix.
func isPermanent(err error) bool {
	var idxErr *IndexError
	if errors.As(err, &idxErr) {
		return idxErr.Type == ErrTypeDimension || idxErr.Type == ErrTypeConfig
	}
	return false
}
