// File: internal/services/department/config.go
package department

import (
	"errors"
	"time"
)

const (
	FinalizerLLM  = "llm"
	FinalizerVote = "vote"
)

type Config struct {
	Model string
	// Samples is how many independent proposals are drawn per disease.
	Samples int
	// Stream selects streaming completions over single-shot ones.
	Stream bool

	CallTimeout    time.Duration
	DiseaseTimeout time.Duration
	// Concurrency bounds how many diseases resolve at once.
	Concurrency int

	FinalizerMode string
}

func DefaultConfig() *Config {
	return &Config{
		Samples:        3,
		Stream:         true,
		CallTimeout:    45 * time.Second,
		DiseaseTimeout: 90 * time.Second,
		Concurrency:    4,
		FinalizerMode:  FinalizerLLM,
	}
}

func (c *Config) Validate() error {
	if c.Samples < 1 {
		return errors.New("samples must be at least 1")
	}
	if c.CallTimeout <= 0 || c.DiseaseTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if c.FinalizerMode != FinalizerLLM && c.FinalizerMode != FinalizerVote {
		return errors.New("finalizer mode must be llm or vote")
	}
	return nil
}
