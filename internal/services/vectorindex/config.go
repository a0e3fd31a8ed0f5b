// File: internal/services/vectorindex/config.go
package vectorindex

import (
	"errors"
	"time"
)

const (
	BackendSQLite   = "sqlite"
	BackendPinecone = "pinecone"
)

type Config struct {
	Backend string

	// SQLite
	DBPath string

	// Pinecone
	APIKey    string
	IndexHost string
	Namespace string

	// Operation settings
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Performance settings
	BatchSize int
}

func DefaultConfig() *Config {
	return &Config{
		Backend:    BackendSQLite,
		DBPath:     "data/vectors.db",
		Namespace:  "disease_symptoms",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
		BatchSize:  100,
	}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("sqlite database path is required")
		}
	case BackendPinecone:
		if c.IndexHost == "" {
			return errors.New("pinecone index host is required")
		}
		if c.APIKey == "" {
			return errors.New("pinecone API key is required")
		}
		if c.Namespace == "" {
			return errors.New("pinecone namespace is required")
		}
	default:
		return errors.New("unknown vector backend: " + c.Backend)
	}

	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}

	if c.BatchSize < 1 {
		return errors.New("batch size must be at least 1")
	}

	return nil
}
