// File: internal/services/embedding/errors.go
package embedding

import "fmt"

type ErrorType string

const (
	ErrTypeInput     ErrorType = "INPUT"
	ErrTypeProvider  ErrorType = "PROVIDER"
	ErrTypeRuntime   ErrorType = "RUNTIME"
	ErrTypeDimension ErrorType = "DIMENSION"
	ErrTypeCache     ErrorType = "CACHE"
)

type Error struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("embedding %s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("embedding %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(errType ErrorType, operation, message string, cause error) *Error {
	return &Error{Type: errType, Operation: operation, Message: message, Cause: cause}
}
