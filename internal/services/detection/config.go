// File: internal/services/detection/config.go
package detection

import "errors"

type Config struct {
	// DefaultTopK is used when a caller passes topK <= 0.
	DefaultTopK int
	// MaxTopK caps caller-supplied topK.
	MaxTopK int
}

func DefaultConfig() *Config {
	return &Config{
		DefaultTopK: 5,
		MaxTopK:     50,
	}
}

func (c *Config) Validate() error {
	if c.DefaultTopK < 1 {
		return errors.New("default topK must be at least 1")
	}
	if c.MaxTopK < c.DefaultTopK {
		return errors.New("max topK must not be below the default")
	}
	return nil
}
