// File: internal/services/vectorindex/interface.go
package vectorindex

import (
	"context"

	"github.com/iyunix/go-triage/internal/domain"
)

// Index is the symptom vector store. All records in one index share a
// single embedding dimension; distances are cosine distances.
type Index interface {
	// Add inserts records. Records whose id already exists are left untouched.
	Add(ctx context.Context, records []domain.SymptomRecord) error
	// Query returns up to topK nearest records, nearest first.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.IndexMatch, error)
	Count(ctx context.Context) (int, error)
	// Reset removes every record.
	Reset(ctx context.Context) error
	Name() string
	Close() error
}

// RetryProvider handles retry logic for remote index operations
type RetryProvider interface {
	RetryWithTimeout(ctx context.Context, call func(ctx context.Context) error) error
}

// Logger interface for index operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
