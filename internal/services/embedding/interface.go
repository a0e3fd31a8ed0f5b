// File: internal/services/embedding/interface.go
package embedding

import "context"

// Encoder maps text to a fixed-dimension vector. The same encoder must be
// used to build the corpus and to embed queries.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
	// ModelID identifies the embedding space, e.g. for cache keys.
	ModelID() string
	Close() error
}

// Logger interface for dependency injection
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
