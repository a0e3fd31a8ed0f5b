// File: internal/services/vectorindex/factory.go
package vectorindex

import "context"

// Open builds the index selected by config.Backend.
func Open(ctx context.Context, config *Config, logger Logger) (Index, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	switch config.Backend {
	case BackendPinecone:
		return NewPineconeIndex(config, logger)
	default:
		return OpenSQLiteIndex(ctx, config, logger)
	}
}
