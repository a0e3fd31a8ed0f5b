// File: internal/services/detection/detector.go
package detection

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/iyunix/go-triage/internal/domain"
	"github.com/iyunix/go-triage/internal/observability"
	"github.com/iyunix/go-triage/internal/services/embedding"
	"github.com/iyunix/go-triage/internal/services/vectorindex"
)

// Logger interface for detection
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Detector turns free-text symptoms into ranked candidate diseases by
// nearest-neighbour search over the labeled corpus.
type Detector struct {
	config  *Config
	encoder embedding.Encoder
	index   vectorindex.Index
	metrics *observability.Metrics
	logger  Logger
}

func NewDetector(config *Config, encoder embedding.Encoder, index vectorindex.Index, metrics *observability.Metrics, logger Logger) *Detector {
	if config == nil {
		config = DefaultConfig()
	}
	return &Detector{
		config:  config,
		encoder: encoder,
		index:   index,
		metrics: metrics,
		logger:  logger,
	}
}

// Detect returns at most topK distinct diseases, highest confidence first.
// Confidence is (1 - cosine distance) * 100, clamped to [0, 100]. An empty
// index yields an empty result, not an error.
func (d *Detector) Detect(ctx context.Context, queryText string, topK int) (result []domain.DiseaseScore, err error) {
	ctx, span := observability.StartSpan(ctx, "detection.Detect", attribute.Int("top_k", topK))
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(queryText) == "" {
		return nil, NewValidationError("query text is empty")
	}
	topK = d.clampTopK(topK)

	start := time.Now()
	vec, err := d.encoder.Encode(ctx, queryText)
	if err != nil {
		d.logger.Error("query encoding failed", "error", err)
		return nil, NewEncodingError(err)
	}

	matches, err := d.index.Query(ctx, vec, topK)
	if err != nil {
		d.logger.Error("vector index query failed", "backend", d.index.Name(), "error", err)
		return nil, NewIndexError(err)
	}

	result = d.score(matches)
	d.metrics.RecordDetection(ctx, time.Since(start), len(result))
	d.logger.Debug("diseases detected", "hits", len(matches), "diseases", len(result), "duration", time.Since(start))
	return result, nil
}

func (d *Detector) clampTopK(topK int) int {
	if topK <= 0 {
		return d.config.DefaultTopK
	}
	if topK > d.config.MaxTopK {
		return d.config.MaxTopK
	}
	return topK
}

// score converts matches to confidences, keeps the best per disease label
// and orders them by confidence, then name.
func (d *Detector) score(matches []domain.IndexMatch) []domain.DiseaseScore {
	best := make(map[string]float64, len(matches))
	for _, m := range matches {
		if math.IsNaN(m.Distance) || math.IsInf(m.Distance, 0) {
			d.logger.Warn("dropping match with non-finite distance", "id", m.ID, "disease", m.Disease)
			continue
		}
		conf := Confidence(m.Distance)
		if prev, ok := best[m.Disease]; !ok || conf > prev {
			best[m.Disease] = conf
		}
	}

	out := make([]domain.DiseaseScore, 0, len(best))
	for disease, conf := range best {
		out = append(out, domain.DiseaseScore{Disease: disease, Confidence: conf})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Disease < out[j].Disease
	})
	return out
}

// Confidence maps a cosine distance to a 0-100 score.
func Confidence(distance float64) float64 {
	c := (1 - distance) * 100
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
