// File: internal/services/ai/errors.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeRateLimit  ErrorType = "RATE_LIMIT"
	ErrTypeTimeout    ErrorType = "TIMEOUT"
	ErrTypeStream     ErrorType = "STREAM"
	ErrTypeEmpty      ErrorType = "EMPTY_RESPONSE"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type AIError struct {
	Type      ErrorType
	Code      int
	Message   string
	Model     string
	Operation string
	Cause     error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("AI %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("AI %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AIError) Unwrap() error {
	return e.Cause
}

func NewConfigError(msg string) *AIError {
	return &AIError{Type: ErrTypeConfig, Message: msg, Operation: "config"}
}

// NewProviderError classifies cause into timeout, rate-limit or provider errors.
func NewProviderError(operation, msg string, cause error) *AIError {
	e := &AIError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
	if errors.Is(cause, context.DeadlineExceeded) {
		e.Type = ErrTypeTimeout
		return e
	}
	var apiErr *openai.APIError
	if errors.As(cause, &apiErr) {
		e.Code = apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(cause, &reqErr) {
		e.Code = reqErr.HTTPStatusCode
	}
	if e.Code == http.StatusTooManyRequests {
		e.Type = ErrTypeRateLimit
	}
	return e
}

func NewStreamError(operation, msg string, cause error) *AIError {
	if errors.Is(cause, context.DeadlineExceeded) {
		return &AIError{Type: ErrTypeTimeout, Operation: operation, Message: msg, Cause: cause}
	}
	return &AIError{Type: ErrTypeStream, Operation: operation, Message: msg, Cause: cause}
}

func NewHTTPError(operation string, status int, body string) *AIError {
	t := ErrTypeProvider
	if status == http.StatusTooManyRequests {
		t = ErrTypeRateLimit
	}
	return &AIError{Type: t, Code: status, Operation: operation, Message: fmt.Sprintf("HTTP %d: %s", status, body)}
}

func newEmptyError(operation, model string) *AIError {
	return &AIError{Type: ErrTypeEmpty, Operation: operation, Model: model, Message: "empty response"}
}

// IsTimeout reports whether err is a timed-out model call.
func IsTimeout(err error) bool {
	var aiErr *AIError
	if errors.As(err, &aiErr) && aiErr.Type == ErrTypeTimeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
