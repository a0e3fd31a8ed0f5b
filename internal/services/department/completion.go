// File: internal/services/department/completion.go
package department

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/iyunix/go-triage/internal/observability"
)

// Completer is the slice of a chat-completion provider the pipeline uses.
type Completer interface {
	GetCompletion(ctx context.Context, model, prompt string) (string, error)
	StreamCompletion(ctx context.Context, model, prompt string, onDelta func(string) error) error
}

// Logger interface for dependency injection
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ask sends one prompt under its own timeout. Streamed deltas are
// accumulated in arrival order.
func ask(ctx context.Context, c Completer, config *Config, metrics *observability.Metrics, operation, prompt string) (answer string, err error) {
	ctx, span := observability.StartSpan(ctx, "department."+operation,
		attribute.String("model", config.Model), attribute.Bool("stream", config.Stream))
	defer func() {
		observability.EndSpan(span, err)
		metrics.RecordLLMCall(ctx, operation, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, config.CallTimeout)
	defer cancel()

	if !config.Stream {
		return c.GetCompletion(ctx, config.Model, prompt)
	}

	var sb strings.Builder
	err = c.StreamCompletion(ctx, config.Model, prompt, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
