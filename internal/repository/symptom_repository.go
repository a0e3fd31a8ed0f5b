// File: internal/repository/symptom_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iyunix/go-triage/internal/domain"
)

var ErrInvalidRecord = errors.New("invalid symptom record")

type gormSymptomRepository struct {
	db *gorm.DB
}

func NewSymptomRepository(db *gorm.DB) SymptomRepository {
	return &gormSymptomRepository{db: db}
}

// AutoMigrate creates the disease_symptoms table when missing.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.SymptomRecord{})
}

func (r *gormSymptomRepository) CreateBatch(ctx context.Context, records []domain.SymptomRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}

	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("database error inserting symptom records: %w", err)
	}
	return inserted, nil
}

func (r *gormSymptomRepository) FindAll(ctx context.Context) ([]domain.SymptomRecord, error) {
	var records []domain.SymptomRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("database error loading symptom records: %w", err)
	}
	return records, nil
}

func (r *gormSymptomRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.SymptomRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("database error counting symptom records: %w", err)
	}
	return n, nil
}

func (r *gormSymptomRepository) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&domain.SymptomRecord{}).Error
	if err != nil {
		return fmt.Errorf("database error deleting symptom records: %w", err)
	}
	return nil
}

func validateRecord(r *domain.SymptomRecord) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	}
	if len(r.Embedding) == 0 {
		return fmt.Errorf("%w: embedding is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Disease) == "" {
		return fmt.Errorf("%w: disease is required", ErrInvalidRecord)
	}
	return nil
}
