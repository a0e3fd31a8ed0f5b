// File: internal/services/corpus/loader.go
package corpus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/go-triage/internal/domain"
	"github.com/iyunix/go-triage/internal/services/embedding"
	"github.com/iyunix/go-triage/internal/services/vectorindex"
)

// corpusNamespace seeds UUIDv5 ids for rows that carry none.
var corpusNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("go-triage/disease_symptoms"))

// Logger interface for dependency injection
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// LoadReport summarizes one Load call.
type LoadReport struct {
	// Skipped is true when the index already held records.
	Skipped  bool
	Inserted int
	// Invalid counts rows dropped for missing query text or label.
	Invalid  int
	Batches  int
	Duration time.Duration
}

// Loader embeds labeled rows and writes them to the index.
type Loader struct {
	encoder embedding.Encoder
	index   vectorindex.Index
	logger  Logger
}

func NewLoader(encoder embedding.Encoder, index vectorindex.Index, logger Logger) *Loader {
	return &Loader{encoder: encoder, index: index, logger: logger}
}

// Load fills an empty index. A non-empty index is treated as already loaded
// and left untouched, even if an earlier load stopped part way; Reload is
// the way to rebuild it.
func (l *Loader) Load(ctx context.Context, rows []domain.CorpusRow, batchSize int) (*LoadReport, error) {
	start := time.Now()
	report := &LoadReport{}
	if batchSize < 1 {
		batchSize = DefaultConfig().BatchSize
	}

	count, err := l.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count index records: %w", err)
	}
	if count > 0 {
		report.Skipped = true
		report.Duration = time.Since(start)
		l.logger.Info("corpus already loaded, skipping", "records", count)
		return report, nil
	}

	valid := make([]domain.CorpusRow, 0, len(rows))
	for _, row := range rows {
		query := strings.TrimSpace(row.QueryText)
		label := strings.TrimSpace(row.ResponseLabel)
		if query == "" || label == "" {
			report.Invalid++
			continue
		}
		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = uuid.NewSHA1(corpusNamespace, []byte(query)).String()
		}
		valid = append(valid, domain.CorpusRow{ID: id, QueryText: query, ResponseLabel: label})
	}
	if report.Invalid > 0 {
		l.logger.Warn("skipping corpus rows without query or label", "rows", report.Invalid)
	}

	for begin := 0; begin < len(valid); begin += batchSize {
		end := begin + batchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[begin:end]

		texts := make([]string, len(batch))
		for i, row := range batch {
			texts[i] = row.QueryText
		}
		vectors, err := l.encoder.EncodeBatch(ctx, texts)
		if err != nil {
			return report, fmt.Errorf("failed to embed batch starting at row %d: %w", begin, err)
		}
		if len(vectors) != len(batch) {
			return report, fmt.Errorf("encoder returned %d vectors for %d rows", len(vectors), len(batch))
		}

		records := make([]domain.SymptomRecord, len(batch))
		for i, row := range batch {
			records[i] = domain.SymptomRecord{
				ID:          row.ID,
				Embedding:   vectors[i],
				Disease:     row.ResponseLabel,
				SymptomText: row.QueryText,
			}
		}
		if err := l.index.Add(ctx, records); err != nil {
			return report, fmt.Errorf("failed to add batch starting at row %d: %w", begin, err)
		}

		report.Inserted += len(records)
		report.Batches++
		l.logger.Debug("corpus batch loaded", "batch", report.Batches, "rows", len(records))
	}

	report.Duration = time.Since(start)
	l.logger.Info("corpus loaded", "inserted", report.Inserted, "invalid", report.Invalid,
		"batches", report.Batches, "duration", report.Duration)
	return report, nil
}

// Reload clears the index and loads rows from scratch.
func (l *Loader) Reload(ctx context.Context, rows []domain.CorpusRow, batchSize int) (*LoadReport, error) {
	if err := l.index.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset index: %w", err)
	}
	l.logger.Info("index reset", "backend", l.index.Name())
	return l.Load(ctx, rows, batchSize)
}
