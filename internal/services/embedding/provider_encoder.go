// File: internal/services/embedding/provider_encoder.go
package embedding

import (
	"context"
	"strings"

	"github.com/iyunix/go-triage/internal/services/ai"
)

// ProviderEncoder embeds text through a remote embedding API.
type ProviderEncoder struct {
	provider  ai.EmbeddingProvider
	model     string
	batchSize int
}

func NewProviderEncoder(provider ai.EmbeddingProvider, model string, config *Config) *ProviderEncoder {
	if config == nil {
		config = DefaultConfig()
	}
	return &ProviderEncoder{provider: provider, model: model, batchSize: config.BatchSize}
}

func (e *ProviderEncoder) ModelID() string {
	return e.model
}

func (e *ProviderEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewError(ErrTypeInput, "encode", "text is empty", nil)
	}
	vec, err := e.provider.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, NewError(ErrTypeProvider, "encode", "provider embedding failed", err)
	}
	return vec, nil
}

// EncodeBatch splits texts into provider-sized requests. Output order
// matches input order.
func (e *ProviderEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.provider.CreateEmbeddings(ctx, texts[start:end])
		if err != nil {
			return nil, NewError(ErrTypeProvider, "encode_batch", "provider embedding failed", err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *ProviderEncoder) Close() error {
	return nil
}
