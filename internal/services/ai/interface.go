// File: internal/services/ai/interface.go
package ai

import "context"

// EmbeddingProvider handles text embeddings
type EmbeddingProvider interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// CompletionProvider handles chat completions. It is the only capability the
// department pipeline needs: text in, text (or a stream of text) out.
type CompletionProvider interface {
	GetCompletion(ctx context.Context, model, prompt string) (string, error)
	StreamCompletion(ctx context.Context, model, prompt string, onDelta func(string) error) error
	HealthCheck(ctx context.Context) error
}

// AIProvider combines embedding and completion capabilities
type AIProvider interface {
	EmbeddingProvider
	CompletionProvider
	Name() string
}
