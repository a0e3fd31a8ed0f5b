// File: internal/repository/interface.go
package repository

import (
	"context"

	"github.com/iyunix/go-triage/internal/domain"
)

// SymptomRepository persists labeled symptom records and their embeddings.
type SymptomRepository interface {
	// CreateBatch inserts records in one transaction and skips ids that already exist.
	CreateBatch(ctx context.Context, records []domain.SymptomRecord) (int64, error)
	FindAll(ctx context.Context) ([]domain.SymptomRecord, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}
