// File: internal/services/ai/factory.go
package ai

import "strings"

// NewProvider builds the provider named by config.Backend.
func NewProvider(config *Config) (AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	switch strings.ToLower(config.Backend) {
	case BackendOllama:
		return NewOllamaProvider(config), nil
	default:
		return NewOpenAIProvider(config), nil
	}
}
