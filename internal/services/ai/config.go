// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"strings"
	"time"
)

const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

type Config struct {
	// Backend selects the chat-completion adapter: "openai" (any
	// OpenAI-compatible API such as OpenRouter) or "ollama".
	Backend string

	// Embedding Configuration
	EmbeddingKey     string
	EmbeddingBaseURL string
	EmbeddingModel   string

	// LLM Configuration
	LLMKey     string
	LLMBaseURL string

	// Timeout bounds a single HTTP exchange with the Ollama backend.
	Timeout time.Duration

	// Model Parameters
	Temperature float32
	TopP        float32
}

// Validate checks the chat-completion settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendOpenAI:
		if c.LLMKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for the openai backend")
		}
	case BackendOllama:
		if c.LLMBaseURL == "" {
			return fmt.Errorf("LLM_BASE_URL is required for the ollama backend")
		}
	default:
		return fmt.Errorf("unknown LLM backend %q", c.Backend)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// ValidateEmbedding checks the settings needed for remote embeddings.
func (c *Config) ValidateEmbedding() error {
	if c.EmbeddingKey == "" && strings.ToLower(c.Backend) != BackendOllama {
		return fmt.Errorf("EMBEDDING_API_KEY is required")
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("EMBEDDING_MODEL_NAME is required")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Backend:     BackendOpenAI,
		LLMBaseURL:  "https://openrouter.ai/api/v1",
		Timeout:     2 * time.Minute,
		Temperature: 0.1,
		TopP:        0.9,
	}
}
