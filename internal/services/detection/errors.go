// File: internal/services/detection/errors.go
package detection

import "fmt"

type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeEncoding   ErrorType = "ENCODING"
	ErrTypeIndex      ErrorType = "INDEX"
)

type Error struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("detection %s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("detection %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewValidationError(message string) *Error {
	return &Error{Type: ErrTypeValidation, Operation: "validate", Message: message}
}

func NewEncodingError(cause error) *Error {
	return &Error{Type: ErrTypeEncoding, Operation: "encode", Message: "failed to embed query", Cause: cause}
}

func NewIndexError(cause error) *Error {
	return &Error{Type: ErrTypeIndex, Operation: "query", Message: "vector index unavailable", Cause: cause}
}
