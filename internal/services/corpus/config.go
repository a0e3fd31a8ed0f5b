// File: internal/services/corpus/config.go
package corpus

import "errors"

type Config struct {
	Path      string
	MaxRows   int
	BatchSize int
}

func DefaultConfig() *Config {
	return &Config{
		Path:      "dataset/data_textual.csv",
		MaxRows:   1000,
		BatchSize: 10,
	}
}

func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("corpus path is required")
	}
	if c.BatchSize < 1 {
		return errors.New("batch size must be at least 1")
	}
	if c.MaxRows < 0 {
		return errors.New("max rows cannot be negative")
	}
	return nil
}
