// File: internal/services/vectorindex/pinecone_index.go
package vectorindex

import (
	"context"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/iyunix/go-triage/internal/domain"
)

// PineconeIndex stores records in one namespace of a cosine-metric Pinecone
// index. Upserting an existing id overwrites it, which is harmless since a
// record id always carries the same content.
type PineconeIndex struct {
	config *Config
	client *pinecone.Client
	conn   *pinecone.IndexConnection
	retry  RetryProvider
	logger Logger
}

func NewPineconeIndex(config *Config, logger Logger) (*PineconeIndex, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: config.APIKey})
	if err != nil {
		return nil, NewConnectionError("failed to create pinecone client", err)
	}
	conn, err := client.Index(pinecone.NewIndexConnParams{
		Host:      config.IndexHost,
		Namespace: config.Namespace,
	})
	if err != nil {
		return nil, NewConnectionError("failed to connect to pinecone index", err)
	}

	logger.Info("pinecone index connected", "host", config.IndexHost, "namespace", config.Namespace)
	return &PineconeIndex{
		config: config,
		client: client,
		conn:   conn,
		retry:  NewRetryService(config, logger),
		logger: logger,
	}, nil
}

func (p *PineconeIndex) Name() string {
	return BackendPinecone
}

func (p *PineconeIndex) Add(ctx context.Context, records []domain.SymptomRecord) error {
	for start := 0; start < len(records); start += p.config.BatchSize {
		end := start + p.config.BatchSize
		if end > len(records) {
			end = len(records)
		}

		vectors := make([]*pinecone.Vector, 0, end-start)
		for _, r := range records[start:end] {
			metadata, err := structpb.NewStruct(r.Metadata())
			if err != nil {
				return NewOperationError("failed to encode metadata", err)
			}
			values := []float32(r.Embedding)
			vectors = append(vectors, &pinecone.Vector{
				Id:       r.ID,
				Values:   &values,
				Metadata: metadata,
			})
		}

		err := p.retry.RetryWithTimeout(ctx, func(ctx context.Context) error {
			_, err := p.conn.UpsertVectors(ctx, vectors)
			return err
		})
		if err != nil {
			return NewOperationError("failed to upsert vectors", err)
		}
	}
	return nil
}

func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.IndexMatch, error) {
	if topK <= 0 {
		return nil, nil
	}

	var resp *pinecone.QueryVectorsResponse
	err := p.retry.RetryWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
			Vector:          vector,
			TopK:            uint32(topK),
			IncludeMetadata: true,
		})
		return err
	})
	if err != nil {
		return nil, NewOperationError("failed to query vectors", err)
	}

	return nearest(matchesFromResponse(resp, p.logger), topK), nil
}

// matchesFromResponse converts cosine scores to distances and drops matches
// whose metadata carries no disease label.
func matchesFromResponse(resp *pinecone.QueryVectorsResponse, logger Logger) []domain.IndexMatch {
	if resp == nil {
		return nil
	}
	matches := make([]domain.IndexMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		match := domain.IndexMatch{
			ID:       m.Vector.Id,
			Distance: 1 - float64(m.Score),
		}
		if md := m.Vector.Metadata; md != nil {
			if v, ok := md.Fields["disease"]; ok {
				match.Disease = v.GetStringValue()
			}
			if v, ok := md.Fields["symptoms"]; ok {
				match.SymptomText = v.GetStringValue()
			}
		}
		if match.Disease == "" {
			logger.Warn("pinecone match without disease metadata", "id", match.ID)
			continue
		}
		matches = append(matches, match)
	}
	return matches
}

func (p *PineconeIndex) Count(ctx context.Context) (int, error) {
	var stats *pinecone.DescribeIndexStatsResponse
	err := p.retry.RetryWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		stats, err = p.conn.DescribeIndexStats(ctx)
		return err
	})
	if err != nil {
		return 0, NewOperationError("failed to describe index stats", err)
	}
	ns, ok := stats.Namespaces[p.config.Namespace]
	if !ok || ns == nil {
		return 0, nil
	}
	return int(ns.VectorCount), nil
}

func (p *PineconeIndex) Reset(ctx context.Context) error {
	err := p.retry.RetryWithTimeout(ctx, func(ctx context.Context) error {
		return p.conn.DeleteAllVectorsInNamespace(ctx)
	})
	if err != nil {
		return NewOperationError("failed to delete namespace", err)
	}
	return nil
}

func (p *PineconeIndex) Close() error {
	return p.conn.Close()
}
