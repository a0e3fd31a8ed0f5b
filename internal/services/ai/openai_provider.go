// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible API (OpenAI, OpenRouter,
// a local gateway). Embeddings and chat may live on different hosts.
type OpenAIProvider struct {
	config          *Config
	embeddingClient *openai.Client
	llmClient       *openai.Client
}

func NewOpenAIProvider(config *Config) *OpenAIProvider {
	llmConfig := openai.DefaultConfig(config.LLMKey)
	if config.LLMBaseURL != "" {
		llmConfig.BaseURL = config.LLMBaseURL
	}
	llmClient := openai.NewClientWithConfig(llmConfig)

	// Embedding client (separate configuration)
	embeddingConfig := openai.DefaultConfig(config.EmbeddingKey)
	if config.EmbeddingBaseURL != "" {
		embeddingConfig.BaseURL = config.EmbeddingBaseURL
	}
	embeddingClient := openai.NewClientWithConfig(embeddingConfig)

	return &OpenAIProvider{
		config:          config,
		embeddingClient: embeddingClient,
		llmClient:       llmClient,
	}
}

func (p *OpenAIProvider) Name() string {
	return BackendOpenAI
}

func (p *OpenAIProvider) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CreateEmbeddings embeds texts in one request. Results are returned in input
// order regardless of the order the API lists them in.
func (p *OpenAIProvider) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.config.EmbeddingModel),
	}

	resp, err := p.embeddingClient.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, NewProviderError("embedding", "failed to create embedding", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, &AIError{
			Type:      ErrTypeEmpty,
			Operation: "embedding",
			Model:     p.config.EmbeddingModel,
			Message:   "embedding response size does not match input",
		}
	}

	out := make([][]float32, len(texts))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		if len(d.Embedding) == 0 {
			return nil, newEmptyError("embedding", p.config.EmbeddingModel)
		}
		out[idx] = d.Embedding
	}
	return out, nil
}

func (p *OpenAIProvider) request(model, prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: p.config.Temperature,
		TopP:        p.config.TopP,
	}
}

func (p *OpenAIProvider) GetCompletion(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.llmClient.CreateChatCompletion(ctx, p.request(model, prompt))
	if err != nil {
		return "", NewProviderError("completion", "failed to create completion", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", newEmptyError("completion", model)
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) StreamCompletion(ctx context.Context, model, prompt string, onDelta func(string) error) error {
	stream, err := p.llmClient.CreateChatCompletionStream(ctx, p.request(model, prompt))
	if err != nil {
		return NewProviderError("streaming", "failed to create stream", err)
	}
	defer stream.Close()

	// go-openai reports both [DONE] and a dropped connection as io.EOF; only
	// a stream that carried a finish reason is complete.
	finished := false
	for {
		response, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !finished {
					return NewStreamError("streaming", "stream ended without a finish reason", io.ErrUnexpectedEOF)
				}
				return nil
			}
			return NewStreamError("streaming", "stream receive error", err)
		}

		if len(response.Choices) > 0 {
			if response.Choices[0].FinishReason != "" {
				finished = true
			}
			delta := response.Choices[0].Delta.Content
			if delta != "" && onDelta != nil {
				if cbErr := onDelta(delta); cbErr != nil {
					return cbErr
				}
			}
		}
	}
}

// HealthCheck lists models on the chat endpoint.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.llmClient.ListModels(ctx); err != nil {
		return NewProviderError("health", "model listing failed", err)
	}
	return nil
}
