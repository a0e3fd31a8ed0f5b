// File: internal/services/department/errors.go
package department

import (
	"context"
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeProposal     ErrorType = "PROPOSAL"
	ErrTypeFinalization ErrorType = "FINALIZATION"
	ErrTypeTimeout      ErrorType = "TIMEOUT"
)

type Error struct {
	Type      ErrorType
	Disease   string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("department %s error for %q in %s: %s (caused by: %v)", e.Type, e.Disease, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("department %s error for %q in %s: %s", e.Type, e.Disease, e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewValidationError(disease, message string) *Error {
	return &Error{Type: ErrTypeValidation, Disease: disease, Operation: "validate", Message: message}
}

func NewProposalError(disease, message string, cause error) *Error {
	return &Error{Type: ErrTypeProposal, Disease: disease, Operation: "propose", Message: message, Cause: cause}
}

func NewFinalizationError(disease, message string, cause error) *Error {
	return &Error{Type: ErrTypeFinalization, Disease: disease, Operation: "finalize", Message: message, Cause: cause}
}

// timeoutOr reports a disease-level timeout when ctx expired, otherwise err.
func timeoutOr(ctx context.Context, disease string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Type: ErrTypeTimeout, Disease: disease, Operation: "resolve", Message: "deadline exceeded", Cause: err}
	}
	return err
}
