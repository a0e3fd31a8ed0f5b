// File: internal/services/vectorindex/sqlite_index.go
package vectorindex

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iyunix/go-triage/internal/domain"
	"github.com/iyunix/go-triage/internal/repository"
)

// SQLiteIndex persists records through gorm and answers queries with an
// exact scan over an in-memory copy, loaded once at open.
type SQLiteIndex struct {
	db     *gorm.DB
	repo   repository.SymptomRepository
	logger Logger

	mu      sync.RWMutex
	records []domain.SymptomRecord
	ids     map[string]struct{}
	dim     int
}

// OpenSQLiteIndex opens (or creates) the database at config.DBPath.
func OpenSQLiteIndex(ctx context.Context, config *Config, logger Logger) (*SQLiteIndex, error) {
	if config.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(config.DBPath), 0o755); err != nil {
			return nil, NewConnectionError("failed to create database directory", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(config.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, NewConnectionError("failed to open database", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, NewConnectionError("failed to migrate database", err)
	}
	return NewSQLiteIndex(ctx, db, logger)
}

// NewSQLiteIndex wraps an already-migrated database.
func NewSQLiteIndex(ctx context.Context, db *gorm.DB, logger Logger) (*SQLiteIndex, error) {
	idx := &SQLiteIndex{
		db:     db,
		repo:   repository.NewSymptomRepository(db),
		logger: logger,
		ids:    make(map[string]struct{}),
	}
	records, err := idx.repo.FindAll(ctx)
	if err != nil {
		return nil, NewConnectionError("failed to load records", err)
	}
	for _, r := range records {
		if idx.dim == 0 {
			idx.dim = len(r.Embedding)
		}
		if len(r.Embedding) != idx.dim {
			logger.Warn("skipping record with inconsistent dimension", "id", r.ID, "dimension", len(r.Embedding), "expected", idx.dim)
			continue
		}
		idx.records = append(idx.records, r)
		idx.ids[r.ID] = struct{}{}
	}
	logger.Info("sqlite index loaded", "records", len(idx.records), "dimension", idx.dim)
	return idx, nil
}

func (s *SQLiteIndex) Name() string {
	return BackendSQLite
}

func (s *SQLiteIndex) Add(ctx context.Context, records []domain.SymptomRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	for _, r := range records {
		if dim == 0 {
			dim = len(r.Embedding)
		}
		if len(r.Embedding) != dim {
			return NewDimensionError(dim, len(r.Embedding))
		}
	}

	if _, err := s.repo.CreateBatch(ctx, records); err != nil {
		return NewOperationError("failed to insert records", err)
	}

	s.dim = dim
	for _, r := range records {
		if _, exists := s.ids[r.ID]; exists {
			continue
		}
		s.ids[r.ID] = struct{}{}
		s.records = append(s.records, r)
	}
	return nil
}

func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.IndexMatch, error) {
	if topK <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, NewTimeoutError("query cancelled", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, NewDimensionError(s.dim, len(vector))
	}

	matches := make([]domain.IndexMatch, len(s.records))
	for i, r := range s.records {
		matches[i] = domain.IndexMatch{
			ID:          r.ID,
			Distance:    cosineDistance(vector, r.Embedding),
			Disease:     r.Disease,
			SymptomText: r.SymptomText,
		}
	}
	return nearest(matches, topK), nil
}

func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *SQLiteIndex) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteAll(ctx); err != nil {
		return NewOperationError("failed to reset index", err)
	}
	s.records = nil
	s.ids = make(map[string]struct{})
	s.dim = 0
	return nil
}

func (s *SQLiteIndex) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
