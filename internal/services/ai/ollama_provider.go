// File: internal/services/ai/ollama_provider.go
package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaProvider speaks Ollama's native /api/chat and /api/embed protocol,
// local or cloud. Streaming responses are newline-delimited JSON objects.
type OllamaProvider struct {
	config  *Config
	baseURL string
	client  *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatChunk struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func NewOllamaProvider(config *Config) *OllamaProvider {
	return &OllamaProvider{
		config:  config,
		baseURL: strings.TrimRight(config.LLMBaseURL, "/"),
		client:  &http.Client{Timeout: config.Timeout},
	}
}

func (p *OllamaProvider) Name() string {
	return BackendOllama
}

func (p *OllamaProvider) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &AIError{Type: ErrTypeValidation, Operation: path, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, &AIError{Type: ErrTypeConfig, Operation: path, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.LLMKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.LLMKey)
	}
	return req, nil
}

func (p *OllamaProvider) do(req *http.Request, operation string) (*http.Response, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, NewProviderError(operation, "request aborted", ctxErr)
		}
		return nil, &AIError{Type: ErrTypeNetwork, Operation: operation, Message: "request failed", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, NewHTTPError(operation, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (p *OllamaProvider) chatRequest(model, prompt string, stream bool) ollamaChatRequest {
	return ollamaChatRequest{
		Model:    model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   stream,
		Options: map[string]interface{}{
			"temperature": p.config.Temperature,
			"top_p":       p.config.TopP,
		},
	}
}

func (p *OllamaProvider) GetCompletion(ctx context.Context, model, prompt string) (string, error) {
	req, err := p.newRequest(ctx, http.MethodPost, "/api/chat", p.chatRequest(model, prompt, false))
	if err != nil {
		return "", err
	}
	resp, err := p.do(req, "completion")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chunk ollamaChatChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return "", NewProviderError("completion", "failed to decode response", err)
	}
	if chunk.Error != "" {
		return "", &AIError{Type: ErrTypeProvider, Operation: "completion", Model: model, Message: chunk.Error}
	}
	if strings.TrimSpace(chunk.Message.Content) == "" {
		return "", newEmptyError("completion", model)
	}
	return chunk.Message.Content, nil
}

// StreamCompletion reads NDJSON chunks until one reports done. A stream that
// ends before a done chunk is an error.
func (p *OllamaProvider) StreamCompletion(ctx context.Context, model, prompt string, onDelta func(string) error) error {
	req, err := p.newRequest(ctx, http.MethodPost, "/api/chat", p.chatRequest(model, prompt, true))
	if err != nil {
		return err
	}
	resp, err := p.do(req, "streaming")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return NewStreamError("streaming", "malformed stream chunk", err)
		}
		if chunk.Error != "" {
			return &AIError{Type: ErrTypeStream, Operation: "streaming", Model: model, Message: chunk.Error}
		}
		if chunk.Message.Content != "" && onDelta != nil {
			if cbErr := onDelta(chunk.Message.Content); cbErr != nil {
				return cbErr
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return NewStreamError("streaming", "stream read error", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewStreamError("streaming", "stream aborted", ctxErr)
	}
	return NewStreamError("streaming", "stream ended before completion", io.ErrUnexpectedEOF)
}

func (p *OllamaProvider) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *OllamaProvider) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req, err := p.newRequest(ctx, http.MethodPost, "/api/embed", ollamaEmbedRequest{Model: p.config.EmbeddingModel, Input: texts})
	if err != nil {
		return nil, err
	}
	resp, err := p.do(req, "embedding")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, NewProviderError("embedding", "failed to decode response", err)
	}
	if out.Error != "" {
		return nil, &AIError{Type: ErrTypeProvider, Operation: "embedding", Model: p.config.EmbeddingModel, Message: out.Error}
	}
	if len(out.Embeddings) != len(texts) {
		return nil, &AIError{
			Type:      ErrTypeEmpty,
			Operation: "embedding",
			Model:     p.config.EmbeddingModel,
			Message:   fmt.Sprintf("got %d embeddings for %d inputs", len(out.Embeddings), len(texts)),
		}
	}
	return out.Embeddings, nil
}

// HealthCheck lists installed models.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	req, err := p.newRequest(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := p.do(req, "health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
