// File: internal/services/embedding/config.go
package embedding

import (
	"fmt"
	"time"
)

type Config struct {
	// BatchSize caps how many texts go to a remote provider per request.
	BatchSize int

	// ONNX
	ModelPath      string
	TokenizerPath  string
	RuntimeLibPath string
	MaxSeqLen      int
	IntraOpThreads int

	// Hashing
	Dimension int

	// Cache
	CacheTTL       time.Duration
	CacheKeyPrefix string
	// CacheSize bounds the in-process cache.
	CacheSize int
}

func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	if c.MaxSeqLen < 8 {
		return fmt.Errorf("max sequence length must be at least 8")
	}
	if c.Dimension < 1 {
		return fmt.Errorf("dimension must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:      32,
		MaxSeqLen:      256,
		IntraOpThreads: 4,
		Dimension:      384,
		CacheTTL:       24 * time.Hour,
		CacheKeyPrefix: "emb",
		CacheSize:      10000,
	}
}
